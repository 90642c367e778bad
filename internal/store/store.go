// Package store persists the serialized session record between runs.
//
// A Store is a byte-level holder: it never inspects what it keeps. Only the session
// manager writes to it.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no session record is stored.
var ErrNotFound = errors.New("store: no session")

// Store holds at most one session record.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, record string) error
	Clear(ctx context.Context) error
}
