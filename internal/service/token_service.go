package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/logger"
	"github.com/dtroode/qapath-server/internal/model"
)

// TokenService issues and resolves the access/refresh pair of a user session.
// Tokens are stateless: nothing is persisted and nothing can be revoked.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

func (s *TokenService) Issue(user model.User) (accessToken string, refreshToken string, err error) {
	access, err := s.Access(user)
	if err != nil {
		return "", "", err
	}

	refresh, err := s.manager.Issue(model.TokenRefresh, user.ID.String(), nil, nil)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh: %w", err)
	}

	return access, refresh, nil
}

// Access issues an access token carrying the user's email.
func (s *TokenService) Access(user model.User) (string, error) {
	access, err := s.manager.Issue(model.TokenAccess, user.ID.String(), map[string]any{"email": user.Email}, nil)
	if err != nil {
		return "", fmt.Errorf("issue access: %w", err)
	}
	return access, nil
}

func (s *TokenService) GetUserID(token string) (uuid.UUID, error) {
	return s.subject(token, model.TokenAccess)
}

func (s *TokenService) RefreshSubject(token string) (uuid.UUID, error) {
	return s.subject(token, model.TokenRefresh)
}

func (s *TokenService) subject(token string, kind model.TokenKind) (uuid.UUID, error) {
	claims, err := s.manager.Verify(token, kind)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.logger.Debug("Token service: subject is not a user id",
			"kind", kind,
			"subject", claims.Subject)
		return uuid.Nil, oops.Code("TOKEN_SUBJECT_INVALID").With("kind", kind).Wrap(model.ErrInvalidToken)
	}

	return id, nil
}
