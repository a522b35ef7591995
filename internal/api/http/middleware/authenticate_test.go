package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/qapath-server/internal/api/http/context"
	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/mocks"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/testutil"
)

var _ Authenticator = (*mocks.AuthService)(nil)

func TestAuthenticate_Handle(t *testing.T) {
	t.Parallel()

	user := model.User{ID: uuid.New(), Email: "ana@example.com", IsActive: true}

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantToken  string
		svcErr     error
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "missing token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed authorization header",
			header:     "Token abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid bearer",
			header:     "Bearer good",
			wantToken:  "good",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "cookie preferred over bearer",
			cookie:     "from-cookie",
			header:     "Bearer from-header",
			wantToken:  "from-cookie",
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "rejected token",
			header:     "Bearer expired",
			wantToken:  "expired",
			svcErr:     model.ErrInvalidToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "deactivated account",
			cookie:     "inactive",
			wantToken:  "inactive",
			svcErr:     model.ErrAccountInactive,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewAuthService(t)
			if tt.wantToken != "" {
				returned := user
				if tt.svcErr != nil {
					returned = model.User{}
				}
				svc.On("Authenticate", mock.Anything, tt.wantToken).Return(returned, tt.svcErr).Once()
			}

			cm := httpctx.NewManager()
			transport := session.New(session.Config{Name: "qapath_session"})
			mw := NewAuthenticate(svc, transport, cm, testutil.MakeNoopLogger())

			var called bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := cm.GetUserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, user.ID, got.ID)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "qapath_session", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.Handle(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, called)
			if !tt.wantNext {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, false, body["success"])
			}
		})
	}
}
