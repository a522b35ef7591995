package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/qapath-server/internal/api/http/context"
	"github.com/dtroode/qapath-server/internal/mocks"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/testutil"
)

var (
	_ ProfileService = (*mocks.ProfileService)(nil)
	_ StatsService   = (*mocks.ProgressService)(nil)
)

func newUserHandler(t *testing.T) (*User, *mocks.ProfileService, *mocks.ProgressService) {
	profile := mocks.NewProfileService(t)
	stats := mocks.NewProgressService(t)
	h := NewUser(profile, stats, newTestTransport(), httpctx.NewManager(), testutil.MakeNoopLogger())
	return h, profile, stats
}

func TestUser_GetMe(t *testing.T) {
	t.Parallel()

	h, profile, _ := newUserHandler(t)
	user := testUser()
	fresh := user
	fresh.DisplayName = "Ana Maria"

	profile.On("Get", mock.Anything, user.ID).Return(fresh, nil).Once()

	rec := httptest.NewRecorder()
	h.GetMe(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/users/me", nil), user))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Maria", decodeResponse(t, rec)["user"].(map[string]any)["display_name"])
}

func TestUser_RequiresAuthenticatedUser(t *testing.T) {
	t.Parallel()

	h, _, _ := newUserHandler(t)

	handlers := map[string]http.HandlerFunc{
		"get":      h.GetMe,
		"update":   h.UpdateMe,
		"delete":   h.DeleteMe,
		"settings": h.UpdateSettings,
		"stats":    h.Stats,
		"upload":   h.UploadAvatar,
		"download": h.DownloadAvatar,
	}

	for name, fn := range handlers {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestUser_UpdateMe(t *testing.T) {
	t.Parallel()

	t.Run("profile fields and settings", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()
		name := "Ana Maria"

		updated := user
		updated.DisplayName = name
		profile.On("Update", mock.Anything, user.ID, model.ProfileUpdate{DisplayName: &name}).
			Return(updated, nil).Once()

		wantSettings := user.Settings
		wantSettings.Theme = model.ThemeLight
		profile.On("UpdateSettings", mock.Anything, user.ID, wantSettings).
			Return(wantSettings, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me",
			strings.NewReader(`{"display_name":"Ana Maria","settings":{"theme":"light"}}`))
		h.UpdateMe(rec, withUser(req, user))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeResponse(t, rec)
		userBody := body["user"].(map[string]any)
		assert.Equal(t, name, userBody["display_name"])
		assert.Equal(t, "light", userBody["settings"].(map[string]any)["theme"])
	})

	t.Run("settings only skips profile update", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()

		wantSettings := user.Settings
		wantSettings.Notifications = false
		profile.On("UpdateSettings", mock.Anything, user.ID, wantSettings).
			Return(wantSettings, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me",
			strings.NewReader(`{"settings":{"notifications":false}}`))
		h.UpdateMe(rec, withUser(req, user))

		require.Equal(t, http.StatusOK, rec.Code)
		profile.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid theme", func(t *testing.T) {
		t.Parallel()

		h, _, _ := newUserHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me",
			strings.NewReader(`{"settings":{"theme":"neon"}}`))
		h.UpdateMe(rec, withUser(req, testUser()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "theme must be one of: light dark auto", decodeResponse(t, rec)["detail"])
	})
}

func TestUser_DeleteMe(t *testing.T) {
	t.Parallel()

	h, profile, _ := newUserHandler(t)
	user := testUser()
	profile.On("Deactivate", mock.Anything, user.ID).Return(nil).Once()

	rec := httptest.NewRecorder()
	h.DeleteMe(rec, withUser(httptest.NewRequest(http.MethodDelete, "/api/users/me", nil), user))

	require.Equal(t, http.StatusOK, rec.Code)
	c := findCookie(rec, testCookieName)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
}

func TestUser_UpdateSettings(t *testing.T) {
	t.Parallel()

	h, profile, _ := newUserHandler(t)
	user := testUser()

	want := model.Settings{Notifications: true, Theme: model.ThemeDark, Language: model.LanguageEnglish}
	profile.On("UpdateSettings", mock.Anything, user.ID, want).Return(want, nil).Once()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/users/me/settings", strings.NewReader(`{"language":"en"}`))
	h.UpdateSettings(rec, withUser(req, user))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", decodeResponse(t, rec)["settings"].(map[string]any)["language"])
}

func TestUser_Stats(t *testing.T) {
	t.Parallel()

	h, _, stats := newUserHandler(t)
	user := testUser()
	stats.On("Stats", mock.Anything, user).Return(model.ProgressStats{
		XP: model.XPStats{Total: 250, Level: 2, ForNextLevel: 50},
	}, nil).Once()

	rec := httptest.NewRecorder()
	h.Stats(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/users/me/stats", nil), user))

	require.Equal(t, http.StatusOK, rec.Code)
	xp := decodeResponse(t, rec)["stats"].(map[string]any)["xp"].(map[string]any)
	assert.EqualValues(t, 2, xp["level"])
	assert.EqualValues(t, 50, xp["for_next_level"])
}

func TestUser_UploadAvatar(t *testing.T) {
	t.Parallel()

	t.Run("stores body", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()
		data := []byte("\x89PNG\r\n\x1a\nrest")

		photo := "/api/users/me/avatar"
		updated := user
		updated.PhotoURL = &photo
		profile.On("UploadAvatar", mock.Anything, user.ID, data).Return(updated, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me/avatar", bytes.NewReader(data))
		h.UploadAvatar(rec, withUser(req, user))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, photo, decodeResponse(t, rec)["user"].(map[string]any)["photo_url"])
	})

	t.Run("storage disabled", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()
		profile.On("UploadAvatar", mock.Anything, user.ID, mock.Anything).
			Return(model.User{}, oops.Public("avatar storage is not configured").Wrap(model.ErrFeatureDisabled)).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/me/avatar", strings.NewReader("x"))
		h.UploadAvatar(rec, withUser(req, user))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestUser_DownloadAvatar(t *testing.T) {
	t.Parallel()

	t.Run("streams object", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()
		content := "\x89PNG\r\n\x1a\nimage"

		profile.On("DownloadAvatar", mock.Anything, user.ID).Return(model.Object{
			Body:        io.NopCloser(strings.NewReader(content)),
			ContentType: "image/png",
			Size:        int64(len(content)),
		}, nil).Once()

		rec := httptest.NewRecorder()
		h.DownloadAvatar(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/users/me/avatar", nil), user))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, content, rec.Body.String())
	})

	t.Run("missing avatar", func(t *testing.T) {
		t.Parallel()

		h, profile, _ := newUserHandler(t)
		user := testUser()
		profile.On("DownloadAvatar", mock.Anything, user.ID).
			Return(model.Object{}, oops.Public("avatar not found").Wrap(model.ErrNotFound)).Once()

		rec := httptest.NewRecorder()
		h.DownloadAvatar(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/users/me/avatar", nil), user))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "avatar not found", decodeResponse(t, rec)["detail"])
	})
}
