package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/qapath-server/internal/model"
)

var _ model.ProgressStore = (*ProgressStore)(nil)

type ProgressStore struct {
	mock.Mock
}

func NewProgressStore(t T) *ProgressStore {
	m := &ProgressStore{}
	register(&m.Mock, t)
	return m
}

func (m *ProgressStore) Get(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressStore) SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) error {
	args := m.Called(ctx, userID, moduleID, completed)
	return args.Error(0)
}

func (m *ProgressStore) SetSubtask(ctx context.Context, userID uuid.UUID, key string, completed bool) error {
	args := m.Called(ctx, userID, key, completed)
	return args.Error(0)
}

func (m *ProgressStore) SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) error {
	args := m.Called(ctx, userID, moduleID, note)
	return args.Error(0)
}

func (m *ProgressStore) AddBadge(ctx context.Context, userID uuid.UUID, badge string) error {
	args := m.Called(ctx, userID, badge)
	return args.Error(0)
}

func (m *ProgressStore) AddXP(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Error(1)
}

func (m *ProgressStore) Sync(ctx context.Context, userID uuid.UUID, sync model.ProgressSync) (model.Progress, error) {
	args := m.Called(ctx, userID, sync)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressStore) Reset(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
