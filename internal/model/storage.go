package model

import (
	"context"
	"io"
)

// Storage persists binary objects such as avatars.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Object is a downloaded stored object. Body must be closed by the caller.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}
