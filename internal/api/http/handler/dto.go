package handler

import (
	"time"

	"github.com/dtroode/qapath-server/internal/model"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
	Password    string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type externalLoginRequest struct {
	GoogleID      string `json:"google_id" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	DisplayName   string `json:"display_name"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
}

type refreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    model.PublicUser `json:"user"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Valid   bool   `json:"valid"`
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
}

type statusResponse struct {
	Success       bool              `json:"success"`
	Authenticated bool              `json:"authenticated"`
	User          *model.PublicUser `json:"user,omitempty"`
}

type updateProfileRequest struct {
	DisplayName *string          `json:"display_name" validate:"omitempty,min=2,max=100"`
	PhotoURL    *string          `json:"photo_url" validate:"omitempty,max=2048"`
	Settings    *settingsRequest `json:"settings"`
}

type settingsRequest struct {
	Notifications *bool   `json:"notifications"`
	Theme         *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
	Language      *string `json:"language" validate:"omitempty,oneof=es en pt"`
}

// apply overlays the provided fields on current.
func (s settingsRequest) apply(current model.Settings) model.Settings {
	if s.Notifications != nil {
		current.Notifications = *s.Notifications
	}
	if s.Theme != nil {
		current.Theme = model.Theme(*s.Theme)
	}
	if s.Language != nil {
		current.Language = model.Language(*s.Language)
	}
	return current
}

type settingsResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Settings model.Settings `json:"settings"`
}

type statsResponse struct {
	Success bool                `json:"success"`
	Stats   model.ProgressStats `json:"stats"`
}

type moduleRequest struct {
	ModuleID    string `json:"module_id" validate:"required"`
	IsCompleted *bool  `json:"is_completed" validate:"required"`
}

type subtaskRequest struct {
	ModuleID    string `json:"module_id" validate:"required"`
	TaskIndex   *int   `json:"task_index" validate:"required,gte=0"`
	IsCompleted *bool  `json:"is_completed" validate:"required"`
}

type noteRequest struct {
	ModuleID string `json:"module_id" validate:"required"`
	NoteText string `json:"note_text" validate:"max=5000"`
}

type badgeRequest struct {
	BadgeName string `json:"badge_name" validate:"required,max=50"`
}

type xpRequest struct {
	Amount int    `json:"amount" validate:"gte=1,lte=1000"`
	Reason string `json:"reason" validate:"max=200"`
}

type syncRequest struct {
	Modules  map[string]bool   `json:"modules"`
	Subtasks map[string]bool   `json:"subtasks"`
	Notes    map[string]string `json:"notes"`
	Badges   []string          `json:"badges"`
	XP       *int              `json:"xp" validate:"omitempty,gte=0"`
}

type progressResponse struct {
	Success  bool           `json:"success"`
	Progress model.Progress `json:"progress"`
}

type modulesResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Modules map[string]bool `json:"modules"`
}

type subtasksResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Subtasks map[string]bool `json:"subtasks"`
}

type notesResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Notes   map[string]string `json:"notes"`
}

type badgesResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Badges  []string `json:"badges"`
}

type xpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	XP      int    `json:"xp"`
}

type syncResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Progress model.Progress `json:"progress"`
	SyncedAt *time.Time     `json:"synced_at"`
}

type resetResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Progress model.Progress `json:"progress"`
}
