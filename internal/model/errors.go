package model

import "errors"

// Store-level errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Service-level error kinds. Callers branch on them with errors.Is; the
// concrete error usually carries more context through wrapping.
var (
	ErrValidation         = errors.New("validation error")
	ErrWeakPassword       = errors.New("weak password")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRateLimited        = errors.New("too many attempts")
	ErrStorage            = errors.New("storage unavailable")
	ErrFeatureDisabled    = errors.New("feature disabled")
)
