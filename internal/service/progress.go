package service

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// Progress orchestrates field-level progress updates. Every mutation returns
// the progress as stored afterwards.
type Progress struct {
	store  model.ProgressStore
	logger *logger.Logger
}

func NewProgress(store model.ProgressStore, logger *logger.Logger) *Progress {
	return &Progress{store: store, logger: logger}
}

func (p *Progress) Get(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	progress, err := p.store.Get(ctx, userID)
	if err != nil {
		return model.Progress{}, p.storeError("get progress", userID, err)
	}
	return progress.Normalized(), nil
}

func (p *Progress) SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) (model.Progress, error) {
	if err := validateModuleID(moduleID); err != nil {
		return model.Progress{}, err
	}

	if err := p.store.SetModule(ctx, userID, moduleID, completed); err != nil {
		return model.Progress{}, p.storeError("set module", userID, err)
	}

	p.logger.Debug("Progress service: module updated",
		"user_id", userID,
		"module_id", moduleID,
		"completed", completed)

	return p.Get(ctx, userID)
}

func (p *Progress) SetSubtask(ctx context.Context, userID uuid.UUID, moduleID string, taskIndex int, completed bool) (model.Progress, error) {
	key := model.SubtaskKey(moduleID, taskIndex)
	if err := validateSubtaskKey(key); err != nil {
		return model.Progress{}, err
	}

	if err := p.store.SetSubtask(ctx, userID, key, completed); err != nil {
		return model.Progress{}, p.storeError("set subtask", userID, err)
	}

	p.logger.Debug("Progress service: subtask updated",
		"user_id", userID,
		"key", key,
		"completed", completed)

	return p.Get(ctx, userID)
}

// SetNote stores the note of a module. A blank note removes it.
func (p *Progress) SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) (model.Progress, error) {
	if err := validateModuleID(moduleID); err != nil {
		return model.Progress{}, err
	}
	note, err := normalizeNote(note)
	if err != nil {
		return model.Progress{}, err
	}

	if err := p.store.SetNote(ctx, userID, moduleID, note); err != nil {
		return model.Progress{}, p.storeError("set note", userID, err)
	}

	return p.Get(ctx, userID)
}

func (p *Progress) AddBadge(ctx context.Context, userID uuid.UUID, badge string) (model.Progress, error) {
	badge, err := normalizeBadge(badge)
	if err != nil {
		return model.Progress{}, err
	}

	if err := p.store.AddBadge(ctx, userID, badge); err != nil {
		return model.Progress{}, p.storeError("add badge", userID, err)
	}

	p.logger.Info("Progress service: badge earned",
		"user_id", userID,
		"badge", badge)

	return p.Get(ctx, userID)
}

// AddXP grants experience points and returns the new total. reason is only logged.
func (p *Progress) AddXP(ctx context.Context, userID uuid.UUID, amount int, reason string) (int, error) {
	if amount < 1 || amount > maxXPPerGrant {
		return 0, invalid("VALIDATION_XP_AMOUNT", "xp amount must be between 1 and 1000", "amount", amount)
	}

	total, err := p.store.AddXP(ctx, userID, amount)
	if err != nil {
		return 0, p.storeError("add xp", userID, err)
	}

	p.logger.Debug("Progress service: xp granted",
		"user_id", userID,
		"amount", amount,
		"reason", reason,
		"total", total)

	return total, nil
}

// Sync replaces every provided section with the client's copy.
func (p *Progress) Sync(ctx context.Context, userID uuid.UUID, sync model.ProgressSync) (model.Progress, error) {
	for moduleID := range sync.Modules {
		if err := validateModuleID(moduleID); err != nil {
			return model.Progress{}, err
		}
	}
	for key := range sync.Subtasks {
		if err := validateSubtaskKey(key); err != nil {
			return model.Progress{}, err
		}
	}
	if sync.Notes != nil {
		notes := make(map[string]string, len(sync.Notes))
		for moduleID, note := range sync.Notes {
			if err := validateModuleID(moduleID); err != nil {
				return model.Progress{}, err
			}
			note, err := normalizeNote(note)
			if err != nil {
				return model.Progress{}, err
			}
			if note != "" {
				notes[moduleID] = note
			}
		}
		sync.Notes = notes
	}
	if sync.Badges != nil {
		badges := make([]string, 0, len(sync.Badges))
		seen := make(map[string]struct{}, len(sync.Badges))
		for _, badge := range sync.Badges {
			badge, err := normalizeBadge(badge)
			if err != nil {
				return model.Progress{}, err
			}
			if _, ok := seen[badge]; ok {
				continue
			}
			seen[badge] = struct{}{}
			badges = append(badges, badge)
		}
		sync.Badges = badges
	}
	if sync.XP != nil {
		if *sync.XP < 0 {
			return model.Progress{}, invalid("VALIDATION_XP", "xp must not be negative", "xp", *sync.XP)
		}
		xp := min(*sync.XP, model.MaxXP)
		sync.XP = &xp
	}

	progress, err := p.store.Sync(ctx, userID, sync)
	if err != nil {
		return model.Progress{}, p.storeError("sync progress", userID, err)
	}

	p.logger.Info("Progress service: progress synced",
		"user_id", userID)

	return progress.Normalized(), nil
}

func (p *Progress) Reset(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	if err := p.store.Reset(ctx, userID); err != nil {
		return model.Progress{}, p.storeError("reset progress", userID, err)
	}

	p.logger.Info("Progress service: progress reset",
		"user_id", userID)

	return p.Get(ctx, userID)
}

// Stats summarises the progress of user.
func (p *Progress) Stats(ctx context.Context, user model.User) (model.ProgressStats, error) {
	progress, err := p.Get(ctx, user.ID)
	if err != nil {
		return model.ProgressStats{}, err
	}

	stats := ComputeStats(progress)
	stats.MemberSince = user.CreatedAt
	stats.LastActive = user.LastActive

	return stats, nil
}

// ComputeStats derives counters and the level from progress.
func ComputeStats(progress model.Progress) model.ProgressStats {
	progress = progress.Normalized()

	completed := countTrue(progress.Modules)
	total := len(progress.Modules)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(completed)/float64(total)*100*100) / 100
	}

	return model.ProgressStats{
		Modules: model.ModuleStats{
			Completed:  completed,
			Total:      total,
			Percentage: percentage,
		},
		Subtasks: model.SubtaskStats{
			Completed: countTrue(progress.Subtasks),
			Total:     len(progress.Subtasks),
		},
		Badges: model.BadgeStats{
			Count: len(progress.Badges),
			List:  progress.Badges,
		},
		XP: model.XPStats{
			Total:        progress.XP,
			Level:        progress.XP / model.XPPerLevel,
			ForNextLevel: model.XPPerLevel - progress.XP%model.XPPerLevel,
		},
		LastSync: progress.LastSync,
	}
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

func (p *Progress) storeError(op string, userID uuid.UUID, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return oops.Code("PROGRESS_USER_MISSING").
			With("user_id", userID).
			Public("user not found").
			Wrap(model.ErrNotFound)
	}
	p.logger.LogError("Progress service: failed to "+op, err,
		"user_id", userID)
	return storageError(op, err)
}
