package service

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/dtroode/qapath-server/internal/model"
)

// storageError reports a failed store call as model.ErrStorage while keeping
// the driver error in the chain for logging.
func storageError(op string, err error) error {
	return oops.Code("STORAGE_UNAVAILABLE").
		With("op", op).
		Wrap(fmt.Errorf("failed to %s: %w: %w", op, model.ErrStorage, err))
}

type noopEvents struct{}

func (noopEvents) AuthEvent(string, string) {}
