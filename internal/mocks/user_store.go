package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/qapath-server/internal/model"
)

var _ model.UserStore = (*UserStore)(nil)

type UserStore struct {
	mock.Mock
}

func NewUserStore(t T) *UserStore {
	m := &UserStore{}
	register(&m.Mock, t)
	return m
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	args := m.Called(ctx, googleID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) TouchLastActive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *UserStore) UpdateSettings(ctx context.Context, id uuid.UUID, settings model.Settings) (model.Settings, error) {
	args := m.Called(ctx, id, settings)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *UserStore) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	args := m.Called(ctx, id, googleID)
	return args.Error(0)
}

func (m *UserStore) UpgradePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *UserStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
