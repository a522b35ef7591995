package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/qapath-server/internal/mocks"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func strPtr(s string) *string { return &s }

func TestProfile_Update(t *testing.T) {
	users := mocks.NewUserStore(t)
	svc := NewProfile(users, nil, testutil.MakeNoopLogger())
	userID := uuid.New()

	users.On("UpdateProfile", mock.Anything, userID, model.ProfileUpdate{DisplayName: strPtr("Ana Maria")}).
		Return(model.User{ID: userID, DisplayName: "Ana Maria"}, nil).Once()

	got, err := svc.Update(context.Background(), userID, model.ProfileUpdate{DisplayName: strPtr("  Ana Maria ")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.DisplayName)
}

func TestProfile_Update_Validation(t *testing.T) {
	svc := NewProfile(mocks.NewUserStore(t), nil, testutil.MakeNoopLogger())

	_, err := svc.Update(context.Background(), uuid.New(), model.ProfileUpdate{DisplayName: strPtr("x")})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Update(context.Background(), uuid.New(), model.ProfileUpdate{PhotoURL: strPtr("javascript:alert(1)")})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProfile_UpdateSettings(t *testing.T) {
	users := mocks.NewUserStore(t)
	svc := NewProfile(users, nil, testutil.MakeNoopLogger())
	userID := uuid.New()
	settings := model.Settings{Notifications: false, Theme: model.ThemeLight, Language: model.LanguageEnglish}

	users.On("UpdateSettings", mock.Anything, userID, settings).Return(settings, nil).Once()

	got, err := svc.UpdateSettings(context.Background(), userID, settings)
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	_, err = svc.UpdateSettings(context.Background(), userID, model.Settings{Theme: "neon", Language: model.LanguageEnglish})
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.UpdateSettings(context.Background(), userID, model.Settings{Theme: model.ThemeAuto, Language: "fr"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestProfile_GetAndDeactivate(t *testing.T) {
	users := mocks.NewUserStore(t)
	svc := NewProfile(users, nil, testutil.MakeNoopLogger())
	userID := uuid.New()

	users.On("GetByID", mock.Anything, userID).Return(model.User{}, model.ErrNotFound).Once()
	users.On("Deactivate", mock.Anything, userID).Return(errors.New("conn reset")).Once()

	_, err := svc.Get(context.Background(), userID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = svc.Deactivate(context.Background(), userID)
	assert.ErrorIs(t, err, model.ErrStorage)
}

func TestProfile_UploadAvatar(t *testing.T) {
	users := mocks.NewUserStore(t)
	storage := mocks.NewStorage(t)
	svc := NewProfile(users, storage, testutil.MakeNoopLogger())
	userID := uuid.New()
	data := append(append([]byte{}, pngHeader...), make([]byte, 64)...)

	storage.On("Upload", mock.Anything, "avatars/"+userID.String(), mock.Anything, int64(len(data)), "image/png").Return(nil).Once()
	users.On("UpdateProfile", mock.Anything, userID, model.ProfileUpdate{PhotoURL: strPtr(AvatarPath)}).
		Return(model.User{ID: userID, PhotoURL: strPtr(AvatarPath)}, nil).Once()

	got, err := svc.UploadAvatar(context.Background(), userID, data)
	require.NoError(t, err)
	require.NotNil(t, got.PhotoURL)
	assert.Equal(t, AvatarPath, *got.PhotoURL)
}

func TestProfile_UploadAvatar_Rejects(t *testing.T) {
	userID := uuid.New()

	t.Run("storage disabled", func(t *testing.T) {
		svc := NewProfile(mocks.NewUserStore(t), nil, testutil.MakeNoopLogger())
		_, err := svc.UploadAvatar(context.Background(), userID, pngHeader)
		assert.ErrorIs(t, err, model.ErrFeatureDisabled)
	})

	t.Run("not an image", func(t *testing.T) {
		svc := NewProfile(mocks.NewUserStore(t), mocks.NewStorage(t), testutil.MakeNoopLogger())
		_, err := svc.UploadAvatar(context.Background(), userID, []byte("plain text avatar"))
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("too large", func(t *testing.T) {
		svc := NewProfile(mocks.NewUserStore(t), mocks.NewStorage(t), testutil.MakeNoopLogger())
		data := append(append([]byte{}, pngHeader...), make([]byte, MaxAvatarSize)...)
		_, err := svc.UploadAvatar(context.Background(), userID, data)
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestProfile_DownloadAvatar(t *testing.T) {
	storage := mocks.NewStorage(t)
	svc := NewProfile(mocks.NewUserStore(t), storage, testutil.MakeNoopLogger())
	userID := uuid.New()
	missing := uuid.New()

	storage.On("Download", mock.Anything, "avatars/"+userID.String()).Return(model.Object{
		Body:        io.NopCloser(bytes.NewReader(pngHeader)),
		ContentType: "image/png",
		Size:        int64(len(pngHeader)),
	}, nil).Once()
	storage.On("Download", mock.Anything, "avatars/"+missing.String()).Return(model.Object{}, model.ErrNotFound).Once()

	obj, err := svc.DownloadAvatar(context.Background(), userID)
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = svc.DownloadAvatar(context.Background(), missing)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReadAvatar_StopsAfterLimit(t *testing.T) {
	data, err := ReadAvatar(bytes.NewReader(make([]byte, MaxAvatarSize*2)))
	require.NoError(t, err)
	assert.Len(t, data, MaxAvatarSize+1)
}
