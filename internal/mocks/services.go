package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/qapath-server/internal/model"
)

type AuthService struct {
	mock.Mock
}

func NewAuthService(t T) *AuthService {
	m := &AuthService{}
	register(&m.Mock, t)
	return m
}

func (m *AuthService) Register(ctx context.Context, params model.RegisterParams) (model.Session, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, params model.LoginParams) (model.Session, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *AuthService) LoginExternal(ctx context.Context, identity model.ExternalIdentity) (model.Session, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *AuthService) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(model.User), args.Error(1)
}

type ProfileService struct {
	mock.Mock
}

func NewProfileService(t T) *ProfileService {
	m := &ProfileService{}
	register(&m.Mock, t)
	return m
}

func (m *ProfileService) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *ProfileService) Update(ctx context.Context, userID uuid.UUID, update model.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, userID, update)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *ProfileService) UpdateSettings(ctx context.Context, userID uuid.UUID, settings model.Settings) (model.Settings, error) {
	args := m.Called(ctx, userID, settings)
	return args.Get(0).(model.Settings), args.Error(1)
}

func (m *ProfileService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (model.User, error) {
	args := m.Called(ctx, userID, data)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *ProfileService) DownloadAvatar(ctx context.Context, userID uuid.UUID) (model.Object, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Object), args.Error(1)
}

// ProgressService also serves as the stats service of the user handler.
type ProgressService struct {
	mock.Mock
}

func NewProgressService(t T) *ProgressService {
	m := &ProgressService{}
	register(&m.Mock, t)
	return m
}

func (m *ProgressService) Get(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) SetModule(ctx context.Context, userID uuid.UUID, moduleID string, completed bool) (model.Progress, error) {
	args := m.Called(ctx, userID, moduleID, completed)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) SetSubtask(ctx context.Context, userID uuid.UUID, moduleID string, taskIndex int, completed bool) (model.Progress, error) {
	args := m.Called(ctx, userID, moduleID, taskIndex, completed)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) SetNote(ctx context.Context, userID uuid.UUID, moduleID string, note string) (model.Progress, error) {
	args := m.Called(ctx, userID, moduleID, note)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) AddBadge(ctx context.Context, userID uuid.UUID, badge string) (model.Progress, error) {
	args := m.Called(ctx, userID, badge)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) AddXP(ctx context.Context, userID uuid.UUID, amount int, reason string) (int, error) {
	args := m.Called(ctx, userID, amount, reason)
	return args.Int(0), args.Error(1)
}

func (m *ProgressService) Sync(ctx context.Context, userID uuid.UUID, sync model.ProgressSync) (model.Progress, error) {
	args := m.Called(ctx, userID, sync)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) Reset(ctx context.Context, userID uuid.UUID) (model.Progress, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Progress), args.Error(1)
}

func (m *ProgressService) Stats(ctx context.Context, user model.User) (model.ProgressStats, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(model.ProgressStats), args.Error(1)
}

type Pinger struct {
	mock.Mock
}

func NewPinger(t T) *Pinger {
	m := &Pinger{}
	register(&m.Mock, t)
	return m
}

func (m *Pinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
