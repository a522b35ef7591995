package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/api/http/session"
	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
	"github.com/dtroode/qapath-server/internal/service"
)

// ProfileService defines profile and account operations.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (model.User, error)
	Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.User, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, settings model.Settings) (model.Settings, error)
	Deactivate(ctx context.Context, userID uuid.UUID) error
	UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (model.User, error)
	DownloadAvatar(ctx context.Context, userID uuid.UUID) (model.Object, error)
}

// StatsService computes progress statistics.
type StatsService interface {
	Stats(ctx context.Context, user model.User) (model.ProgressStats, error)
}

// User handles the /api/users endpoints.
type User struct {
	profileService ProfileService
	statsService   StatsService
	transport      *session.Transport
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewUser(
	profileService ProfileService,
	statsService StatsService,
	transport *session.Transport,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *User {
	return &User{
		profileService: profileService,
		statsService:   statsService,
		transport:      transport,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *User) GetMe(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	user, err := h.profileService.Get(r.Context(), current.ID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{Success: true, User: user.Public()})
}

// UpdateMe changes the display name, photo url and, when given, settings.
func (h *User) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	user := current
	if req.DisplayName != nil || req.PhotoURL != nil {
		var err error
		user, err = h.profileService.Update(r.Context(), current.ID, model.ProfileUpdate{
			DisplayName: req.DisplayName,
			PhotoURL:    req.PhotoURL,
		})
		if err != nil {
			WriteError(w, r, err, h.logger)
			return
		}
	}

	if req.Settings != nil {
		settings, err := h.profileService.UpdateSettings(r.Context(), current.ID, req.Settings.apply(current.Settings))
		if err != nil {
			WriteError(w, r, err, h.logger)
			return
		}
		user.Settings = settings
	}

	writeJSON(w, http.StatusOK, userResponse{
		Success: true,
		Message: "profile updated successfully",
		User:    user.Public(),
	})
}

// DeleteMe deactivates the account and clears the session cookies.
func (h *User) DeleteMe(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	if err := h.profileService.Deactivate(r.Context(), current.ID); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	h.transport.Clear(w)
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "account deactivated successfully"})
}

// UpdateSettings overlays the provided settings on the current ones.
func (h *User) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req settingsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	settings, err := h.profileService.UpdateSettings(r.Context(), current.ID, req.apply(current.Settings))
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Success:  true,
		Message:  "settings updated successfully",
		Settings: settings,
	})
}

func (h *User) Stats(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	stats, err := h.statsService.Stats(r.Context(), current)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}

// UploadAvatar stores the raw request body as the user's avatar.
func (h *User) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	data, err := service.ReadAvatar(r.Body)
	if err != nil {
		WriteError(w, r, oops.Code("AVATAR_READ_FAILED").Public("failed to read avatar").Wrap(model.ErrValidation), h.logger)
		return
	}

	user, err := h.profileService.UploadAvatar(r.Context(), current.ID, data)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Success: true,
		Message: "avatar uploaded successfully",
		User:    user.Public(),
	})
}

func (h *User) DownloadAvatar(w http.ResponseWriter, r *http.Request) {
	current, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	obj, err := h.profileService.DownloadAvatar(r.Context(), current.ID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.LogWarn("User handler: failed to stream avatar", err,
			"user_id", current.ID)
	}
}

// currentUser returns the user placed in the context by the authenticate
// middleware, answering 401 when it is missing.
func currentUser(w http.ResponseWriter, r *http.Request, cm model.ContextManager, logger *logger.Logger) (model.User, bool) {
	user, ok := cm.GetUserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrInvalidToken, logger)
		return model.User{}, false
	}
	return user, true
}
