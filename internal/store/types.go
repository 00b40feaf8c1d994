package store

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every failure of the backing medium.
var ErrUnavailable = errors.New("record store unavailable")

// Store is the set of already-notified order ids.
//
// Contains reports false (and no error) while the backing file does not exist.
// Record is durable when it returns nil.
type Store interface {
	Contains(ctx context.Context, id int64) (bool, error)
	Record(ctx context.Context, id int64) error
	Close() error
}

// Config selects and parameterizes the driver.
type Config struct {
	Driver      string // "file" (default)
	Path        string
	LockTimeout string // Go duration; default "5s"
}
