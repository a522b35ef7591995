package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// ProgressService defines field-level progress operations.
type ProgressService interface {
	Get(ctx context.Context, userID uuid.UUID) (model.Progress, error)
	SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) (model.Progress, error)
	SetSubtask(ctx context.Context, userID uuid.UUID, moduleID string, taskIndex int, completed bool) (model.Progress, error)
	SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) (model.Progress, error)
	AddBadge(ctx context.Context, userID uuid.UUID, badge string) (model.Progress, error)
	AddXP(ctx context.Context, userID uuid.UUID, amount int, reason string) (int, error)
	Sync(ctx context.Context, userID uuid.UUID, sync model.ProgressSync) (model.Progress, error)
	Reset(ctx context.Context, userID uuid.UUID) (model.Progress, error)
	Stats(ctx context.Context, user model.User) (model.ProgressStats, error)
}

// Progress handles the /api/progress endpoints.
type Progress struct {
	progressService ProgressService
	contextManager  model.ContextManager
	logger          *logger.Logger
}

func NewProgress(progressService ProgressService, contextManager model.ContextManager, logger *logger.Logger) *Progress {
	return &Progress{
		progressService: progressService,
		contextManager:  contextManager,
		logger:          logger,
	}
}

func (h *Progress) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	progress, err := h.progressService.Get(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{Success: true, Progress: progress})
}

func (h *Progress) SetModule(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req moduleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	progress, err := h.progressService.SetModule(r.Context(), user.ID, req.ModuleID, *req.IsCompleted)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, modulesResponse{
		Success: true,
		Message: fmt.Sprintf("module %s updated", req.ModuleID),
		Modules: progress.Modules,
	})
}

func (h *Progress) SetSubtask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req subtaskRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	progress, err := h.progressService.SetSubtask(r.Context(), user.ID, req.ModuleID, *req.TaskIndex, *req.IsCompleted)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, subtasksResponse{
		Success:  true,
		Message:  fmt.Sprintf("subtask %s updated", model.SubtaskKey(req.ModuleID, *req.TaskIndex)),
		Subtasks: progress.Subtasks,
	})
}

func (h *Progress) SetNote(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req noteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	progress, err := h.progressService.SetNote(r.Context(), user.ID, req.ModuleID, req.NoteText)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, notesResponse{
		Success: true,
		Message: fmt.Sprintf("note for module %s updated", req.ModuleID),
		Notes:   progress.Notes,
	})
}

func (h *Progress) AddBadge(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req badgeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	progress, err := h.progressService.AddBadge(r.Context(), user.ID, req.BadgeName)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, badgesResponse{
		Success: true,
		Message: fmt.Sprintf("badge '%s' added", req.BadgeName),
		Badges:  progress.Badges,
	})
}

func (h *Progress) AddXP(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req xpRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	total, err := h.progressService.AddXP(r.Context(), user.ID, req.Amount, req.Reason)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	message := fmt.Sprintf("%d XP added", req.Amount)
	if req.Reason != "" {
		message += fmt.Sprintf(" (%s)", req.Reason)
	}

	writeJSON(w, http.StatusOK, xpResponse{Success: true, Message: message, XP: total})
}

// Sync replaces the sections present in the body with the client's copy.
func (h *Progress) Sync(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	var req syncRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	progress, err := h.progressService.Sync(r.Context(), user.ID, model.ProgressSync{
		Modules:  req.Modules,
		Subtasks: req.Subtasks,
		Notes:    req.Notes,
		Badges:   req.Badges,
		XP:       req.XP,
	})
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Success:  true,
		Message:  "progress synced successfully",
		Progress: progress,
		SyncedAt: progress.LastSync,
	})
}

func (h *Progress) Reset(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	progress, err := h.progressService.Reset(r.Context(), user.ID)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{
		Success:  true,
		Message:  "progress reset successfully",
		Progress: progress,
	})
}

func (h *Progress) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.contextManager, h.logger)
	if !ok {
		return
	}

	stats, err := h.progressService.Stats(r.Context(), user)
	if err != nil {
		WriteError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}
