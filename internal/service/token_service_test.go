package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/testutil"
	"github.com/dtroode/qapath-server/internal/token"
)

func TestTokenService(t *testing.T) {
	lg := testutil.MakeNoopLogger()
	jwt, err := token.NewJWT(token.Config{Secret: "k", AccessTTL: time.Minute, RefreshTTL: time.Hour}, lg)
	require.NoError(t, err)
	svc := NewTokenService(jwt, lg)

	user := model.User{ID: uuid.New(), Email: "ana@example.com"}
	access, refresh, err := svc.Issue(user)
	require.NoError(t, err)

	id, err := svc.GetUserID(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	id, err = svc.RefreshSubject(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = svc.GetUserID(refresh)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	_, err = svc.RefreshSubject(access)
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	foreign, err := jwt.Issue(model.TokenAccess, "not-a-uuid", nil, nil)
	require.NoError(t, err)
	_, err = svc.GetUserID(foreign)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}
