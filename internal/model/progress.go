package model

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxXP caps the accumulated experience points of a user.
const MaxXP = 1_000_000

// XPPerLevel is the amount of XP needed to advance one level.
const XPPerLevel = 100

// ProgressStore defines atomic field-level progress operations. Every mutation
// also stamps the last sync time and the user's last activity.
type ProgressStore interface {
	Get(ctx context.Context, userID uuid.UUID) (Progress, error)
	SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) error
	SetSubtask(ctx context.Context, userID uuid.UUID, key string, completed bool) error
	SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) error
	AddBadge(ctx context.Context, userID uuid.UUID, badge string) error
	AddXP(ctx context.Context, userID uuid.UUID, amount int) (int, error)
	Sync(ctx context.Context, userID uuid.UUID, sync ProgressSync) (Progress, error)
	Reset(ctx context.Context, userID uuid.UUID) error
}

// Progress is the learning progress of a user.
type Progress struct {
	Modules  map[string]bool   `json:"modules"`
	Subtasks map[string]bool   `json:"subtasks"`
	Notes    map[string]string `json:"notes"`
	Badges   []string          `json:"badges"`
	XP       int               `json:"xp"`
	LastSync *time.Time        `json:"last_sync"`
}

// NewProgress returns an empty progress with non-nil collections.
func NewProgress() Progress {
	return Progress{
		Modules:  map[string]bool{},
		Subtasks: map[string]bool{},
		Notes:    map[string]string{},
		Badges:   []string{},
	}
}

// Normalized returns p with nil collections replaced by empty ones.
func (p Progress) Normalized() Progress {
	if p.Modules == nil {
		p.Modules = map[string]bool{}
	}
	if p.Subtasks == nil {
		p.Subtasks = map[string]bool{}
	}
	if p.Notes == nil {
		p.Notes = map[string]string{}
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	return p
}

// ProgressSync replaces whole progress sections. Nil sections are not touched.
type ProgressSync struct {
	Modules  map[string]bool
	Subtasks map[string]bool
	Notes    map[string]string
	Badges   []string
	XP       *int
}

// SubtaskKey builds the subtask map key for a module task.
func SubtaskKey(moduleID string, taskIndex int) string {
	return fmt.Sprintf("%s-%d", moduleID, taskIndex)
}

// ProgressStats summarises progress for the statistics endpoints.
type ProgressStats struct {
	Modules     ModuleStats  `json:"modules"`
	Subtasks    SubtaskStats `json:"subtasks"`
	Badges      BadgeStats   `json:"badges"`
	XP          XPStats      `json:"xp"`
	LastSync    *time.Time   `json:"last_sync"`
	MemberSince time.Time    `json:"member_since"`
	LastActive  time.Time    `json:"last_active"`
}

// ModuleStats counts completed modules.
type ModuleStats struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SubtaskStats counts completed subtasks.
type SubtaskStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// BadgeStats lists earned badges.
type BadgeStats struct {
	Count int      `json:"total"`
	List  []string `json:"list"`
}

// XPStats describes the level derived from XP.
type XPStats struct {
	Total        int `json:"total"`
	Level        int `json:"level"`
	ForNextLevel int `json:"for_next_level"`
}
