package model

import "context"

// LoginLimiter throttles repeated failed logins by email and client address.
type LoginLimiter interface {
	Check(ctx context.Context, email, clientIP string) error
	Fail(ctx context.Context, email, clientIP string)
	Reset(ctx context.Context, email, clientIP string)
}
