package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/qapath-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, display_name, password_hash, photo_url, auth_provider, google_id, firebase_uid,
	is_active, email_verified, created_at, last_active, migrated_from_firebase, migration_date,
	progress_modules, progress_subtasks, progress_notes, progress_badges, progress_xp, progress_last_sync,
	settings_notifications, settings_theme, settings_language`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// GetByEmail looks the user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.QueryRow(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		return model.User{}, mapError(err, "get user by email")
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return model.User{}, mapError(err, "get user by id")
	}

	return user, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, googleID))
	if err != nil {
		return model.User{}, mapError(err, "get user by google id")
	}

	return user, nil
}

// Create inserts a user. Any unique violation is reported as model.ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	progress, err := encodeProgress(user.Progress)
	if err != nil {
		return model.User{}, err
	}

	query := `INSERT INTO users (id, email, display_name, password_hash, photo_url, auth_provider, google_id, firebase_uid,
			is_active, email_verified, created_at, last_active, migrated_from_firebase, migration_date,
			progress_modules, progress_subtasks, progress_notes, progress_badges, progress_xp, progress_last_sync,
			settings_notifications, settings_theme, settings_language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.PhotoURL, string(user.AuthProvider),
		user.GoogleID, user.FirebaseUID, user.IsActive, user.EmailVerified, user.CreatedAt, user.LastActive,
		user.MigratedFromFirebase, user.MigrationDate,
		progress.modules, progress.subtasks, progress.notes, progress.badges, user.Progress.XP, user.Progress.LastSync,
		user.Settings.Notifications, string(user.Settings.Theme), string(user.Settings.Language),
	))
	if err != nil {
		return model.User{}, mapError(err, "create user")
	}

	return saved, nil
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_active = now() WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "touch last active")
	}
	return requireAffected(tag)
}

// UpdateProfile applies the non-nil fields of update.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	query := `UPDATE users SET display_name = COALESCE($2, display_name), photo_url = COALESCE($3, photo_url), last_active = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, update.DisplayName, update.PhotoURL))
	if err != nil {
		return model.User{}, mapError(err, "update profile")
	}

	return user, nil
}

func (r *UserRepository) UpdateSettings(ctx context.Context, id uuid.UUID, settings model.Settings) (model.Settings, error) {
	query := `UPDATE users SET settings_notifications = $2, settings_theme = $3, settings_language = $4, last_active = now()
		WHERE id = $1
		RETURNING settings_notifications, settings_theme, settings_language`

	var (
		saved    model.Settings
		theme    string
		language string
	)
	err := r.db.QueryRow(ctx, query, id, settings.Notifications, string(settings.Theme), string(settings.Language)).
		Scan(&saved.Notifications, &theme, &language)
	if err != nil {
		return model.Settings{}, mapError(err, "update settings")
	}
	saved.Theme = model.Theme(theme)
	saved.Language = model.Language(language)

	return saved, nil
}

func (r *UserRepository) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET google_id = $2 WHERE id = $1`, id, googleID)
	if err != nil {
		return mapError(err, "link google id")
	}
	return requireAffected(tag)
}

func (r *UserRepository) UpgradePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1 AND auth_provider = 'email'`, id, hash)
	if err != nil {
		return mapError(err, "upgrade password hash")
	}
	return requireAffected(tag)
}

// Deactivate soft-deletes the user. The row and its progress are kept.
func (r *UserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "deactivate user")
	}
	return requireAffected(tag)
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u                         model.User
		provider, theme, language string
		modules, subtasks, notes  []byte
	)

	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.PhotoURL, &provider, &u.GoogleID, &u.FirebaseUID,
		&u.IsActive, &u.EmailVerified, &u.CreatedAt, &u.LastActive, &u.MigratedFromFirebase, &u.MigrationDate,
		&modules, &subtasks, &notes, &u.Progress.Badges, &u.Progress.XP, &u.Progress.LastSync,
		&u.Settings.Notifications, &theme, &language,
	)
	if err != nil {
		return model.User{}, err
	}

	u.AuthProvider = model.AuthProvider(provider)
	u.Settings.Theme = model.Theme(theme)
	u.Settings.Language = model.Language(language)

	if err := decodeProgressMaps(&u.Progress, modules, subtasks, notes); err != nil {
		return model.User{}, err
	}

	return u, nil
}

type encodedProgress struct {
	modules  []byte
	subtasks []byte
	notes    []byte
	badges   []string
}

func encodeProgress(p model.Progress) (encodedProgress, error) {
	p = p.Normalized()

	modules, err := json.Marshal(p.Modules)
	if err != nil {
		return encodedProgress{}, fmt.Errorf("failed to encode modules: %w", err)
	}
	subtasks, err := json.Marshal(p.Subtasks)
	if err != nil {
		return encodedProgress{}, fmt.Errorf("failed to encode subtasks: %w", err)
	}
	notes, err := json.Marshal(p.Notes)
	if err != nil {
		return encodedProgress{}, fmt.Errorf("failed to encode notes: %w", err)
	}

	return encodedProgress{modules: modules, subtasks: subtasks, notes: notes, badges: p.Badges}, nil
}

func decodeProgressMaps(p *model.Progress, modules, subtasks, notes []byte) error {
	*p = p.Normalized()

	if len(modules) > 0 {
		if err := json.Unmarshal(modules, &p.Modules); err != nil {
			return fmt.Errorf("failed to decode modules: %w", err)
		}
	}
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &p.Subtasks); err != nil {
			return fmt.Errorf("failed to decode subtasks: %w", err)
		}
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &p.Notes); err != nil {
			return fmt.Errorf("failed to decode notes: %w", err)
		}
	}

	return nil
}
