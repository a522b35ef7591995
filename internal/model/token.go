package model

import "time"

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims are the verified contents of a token.
type Claims struct {
	Subject   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// Email returns the email claim carried by access tokens.
func (c Claims) Email() string {
	email, _ := c.Extra["email"].(string)
	return email
}

// TokenManager issues and verifies signed tokens. Verification never touches a store.
type TokenManager interface {
	Issue(kind TokenKind, subject string, extra map[string]any, ttl *time.Duration) (string, error)
	Verify(token string, kind TokenKind) (Claims, error)
}
