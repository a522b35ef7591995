package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/qapath-server/internal/model"
)

var _ model.ProgressStore = (*ProgressRepository)(nil)

const progressColumns = `progress_modules, progress_subtasks, progress_notes, progress_badges, progress_xp, progress_last_sync`

// touched is appended to every progress mutation.
const touched = `progress_last_sync = now(), last_active = now()`

// ProgressRepository performs single-statement progress updates, so writes
// to different keys never overwrite each other.
type ProgressRepository struct {
	db DB
}

func NewProgressRepository(db DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Get(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM users WHERE id = $1`

	progress, err := r.queryProgress(ctx, query, userID)
	if err != nil {
		return model.Progress{}, mapError(err, "get progress")
	}

	return progress, nil
}

func (r *ProgressRepository) SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) error {
	query := `UPDATE users SET progress_modules = jsonb_set(progress_modules, ARRAY[$2::text], to_jsonb($3::boolean)), ` + touched + ` WHERE id = $1`

	return r.exec(ctx, "set module", query, userID, moduleID, completed)
}

func (r *ProgressRepository) SetSubtask(ctx context.Context, userID uuid.UUID, key string, completed bool) error {
	query := `UPDATE users SET progress_subtasks = jsonb_set(progress_subtasks, ARRAY[$2::text], to_jsonb($3::boolean)), ` + touched + ` WHERE id = $1`

	return r.exec(ctx, "set subtask", query, userID, key, completed)
}

// SetNote stores the note of a module. An empty note removes the key.
func (r *ProgressRepository) SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) error {
	if note == "" {
		query := `UPDATE users SET progress_notes = progress_notes - $2::text, ` + touched + ` WHERE id = $1`
		return r.exec(ctx, "remove note", query, userID, moduleID)
	}

	query := `UPDATE users SET progress_notes = jsonb_set(progress_notes, ARRAY[$2::text], to_jsonb($3::text)), ` + touched + ` WHERE id = $1`
	return r.exec(ctx, "set note", query, userID, moduleID, note)
}

// AddBadge appends badge unless the user already has it.
func (r *ProgressRepository) AddBadge(ctx context.Context, userID uuid.UUID, badge string) error {
	query := `UPDATE users SET progress_badges = CASE WHEN $2::text = ANY(progress_badges) THEN progress_badges ELSE array_append(progress_badges, $2::text) END, ` + touched + ` WHERE id = $1`

	return r.exec(ctx, "add badge", query, userID, badge)
}

// AddXP increments XP, capped at model.MaxXP, and returns the new total.
func (r *ProgressRepository) AddXP(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	query := `UPDATE users SET progress_xp = LEAST(progress_xp + $2, $3), ` + touched + ` WHERE id = $1 RETURNING progress_xp`

	var total int
	if err := r.db.QueryRow(ctx, query, userID, amount, model.MaxXP).Scan(&total); err != nil {
		return 0, mapError(err, "add xp")
	}

	return total, nil
}

// Sync replaces every provided section in one statement.
func (r *ProgressRepository) Sync(ctx context.Context, userID uuid.UUID, sync model.ProgressSync) (model.Progress, error) {
	modules, err := jsonArg(sync.Modules)
	if err != nil {
		return model.Progress{}, err
	}
	subtasks, err := jsonArg(sync.Subtasks)
	if err != nil {
		return model.Progress{}, err
	}
	notes, err := jsonArg(sync.Notes)
	if err != nil {
		return model.Progress{}, err
	}

	var badges, xp any
	if sync.Badges != nil {
		badges = sync.Badges
	}
	if sync.XP != nil {
		xp = *sync.XP
	}

	query := `UPDATE users SET
			progress_modules = COALESCE($2::jsonb, progress_modules),
			progress_subtasks = COALESCE($3::jsonb, progress_subtasks),
			progress_notes = COALESCE($4::jsonb, progress_notes),
			progress_badges = COALESCE($5::text[], progress_badges),
			progress_xp = COALESCE($6::integer, progress_xp),
			` + touched + `
		WHERE id = $1
		RETURNING ` + progressColumns

	progress, err := r.queryProgress(ctx, query, userID, modules, subtasks, notes, badges, xp)
	if err != nil {
		return model.Progress{}, mapError(err, "sync progress")
	}

	return progress, nil
}

// Reset clears all progress of the user.
func (r *ProgressRepository) Reset(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET
			progress_modules = '{}'::jsonb,
			progress_subtasks = '{}'::jsonb,
			progress_notes = '{}'::jsonb,
			progress_badges = '{}',
			progress_xp = 0,
			` + touched + `
		WHERE id = $1`

	return r.exec(ctx, "reset progress", query, userID)
}

func (r *ProgressRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, op)
	}
	return requireAffected(tag)
}

func (r *ProgressRepository) queryProgress(ctx context.Context, query string, args ...any) (model.Progress, error) {
	var (
		p                        model.Progress
		modules, subtasks, notes []byte
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(&modules, &subtasks, &notes, &p.Badges, &p.XP, &p.LastSync)
	if err != nil {
		return model.Progress{}, err
	}

	if err := decodeProgressMaps(&p, modules, subtasks, notes); err != nil {
		return model.Progress{}, err
	}

	return p, nil
}

// jsonArg encodes a provided section. Nil maps become SQL NULL.
func jsonArg[M ~map[string]V, V any](m M) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress section: %w", err)
	}
	return string(data), nil
}
