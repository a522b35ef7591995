package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByGoogleID(ctx context.Context, googleID string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	TouchLastActive(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (User, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings Settings) (Settings, error)
	LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
	UpgradePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// AuthProvider identifies how a user authenticates.
type AuthProvider string

const (
	// ProviderEmail is an email and password account.
	ProviderEmail AuthProvider = "email"
	// ProviderGoogle is an account created from an external Google identity.
	ProviderGoogle AuthProvider = "google"
	// ProviderFederatedLegacy is an account imported from the previous identity provider.
	ProviderFederatedLegacy AuthProvider = "federated-legacy"
)

// User represents a stored user with authentication material.
type User struct {
	ID                   uuid.UUID
	Email                string
	DisplayName          string
	PasswordHash         *string
	PhotoURL             *string
	AuthProvider         AuthProvider
	GoogleID             *string
	FirebaseUID          *string
	IsActive             bool
	EmailVerified        bool
	CreatedAt            time.Time
	LastActive           time.Time
	Progress             Progress
	Settings             Settings
	MigratedFromFirebase bool
	MigrationDate        *time.Time
}

// ProfileUpdate holds optional profile changes. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	DisplayName   string       `json:"display_name"`
	PhotoURL      *string      `json:"photo_url"`
	AuthProvider  AuthProvider `json:"auth_provider"`
	CreatedAt     time.Time    `json:"created_at"`
	LastActive    time.Time    `json:"last_active"`
	EmailVerified bool         `json:"email_verified"`
	Progress      Progress     `json:"progress"`
	Settings      Settings     `json:"settings"`
}

// Public projects the user for responses. Credentials and provider ids are never included.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID.String(),
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		AuthProvider:  u.AuthProvider,
		CreatedAt:     u.CreatedAt,
		LastActive:    u.LastActive,
		EmailVerified: u.EmailVerified,
		Progress:      u.Progress.Normalized(),
		Settings:      u.Settings,
	}
}
