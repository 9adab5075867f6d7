package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for store errors.
var (
	// ErrStoreUnavailable marks any failed read or write against the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnknownBackend   = errors.New("unknown store backend")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
