package mocks

import (
	"context"
	"io"
	"net"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/qapath-server/internal/model"
)

var (
	_ model.LoginLimiter      = (*LoginLimiter)(nil)
	_ model.Storage           = (*Storage)(nil)
	_ model.SecurityLayer     = (*SecurityLayer)(nil)
	_ model.ContextManager    = (*ContextManager)(nil)
	_ model.AuthEventRecorder = (*AuthEventRecorder)(nil)
)

type LoginLimiter struct {
	mock.Mock
}

func NewLoginLimiter(t T) *LoginLimiter {
	m := &LoginLimiter{}
	register(&m.Mock, t)
	return m
}

func (m *LoginLimiter) Check(ctx context.Context, email, clientIP string) error {
	args := m.Called(ctx, email, clientIP)
	return args.Error(0)
}

func (m *LoginLimiter) Fail(ctx context.Context, email, clientIP string) {
	m.Called(ctx, email, clientIP)
}

func (m *LoginLimiter) Reset(ctx context.Context, email, clientIP string) {
	m.Called(ctx, email, clientIP)
}

type Storage struct {
	mock.Mock
}

func NewStorage(t T) *Storage {
	m := &Storage{}
	register(&m.Mock, t)
	return m
}

func (m *Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *Storage) Download(ctx context.Context, key string) (model.Object, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.Object), args.Error(1)
}

func (m *Storage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Storage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type SecurityLayer struct {
	mock.Mock
}

func NewSecurityLayer(t T) *SecurityLayer {
	m := &SecurityLayer{}
	register(&m.Mock, t)
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

type ContextManager struct {
	mock.Mock
}

func NewContextManager(t T) *ContextManager {
	m := &ContextManager{}
	register(&m.Mock, t)
	return m
}

func (m *ContextManager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	args := m.Called(ctx, user)
	return args.Get(0).(context.Context)
}

func (m *ContextManager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	args := m.Called(ctx)
	return args.Get(0).(model.User), args.Bool(1)
}

type AuthEventRecorder struct {
	mock.Mock
}

func NewAuthEventRecorder(t T) *AuthEventRecorder {
	m := &AuthEventRecorder{}
	register(&m.Mock, t)
	return m
}

func (m *AuthEventRecorder) AuthEvent(event, outcome string) {
	m.Called(event, outcome)
}
