package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiliankoe/storychain/internal/game"
)

var (
	// ErrNotFound is returned when no game is stored under the id.
	ErrNotFound = game.ErrGameNotFound
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("game id already exists")

	// errConflict marks a lost optimistic race; the operation is retried.
	errConflict = errors.New("concurrent update")
)

// MutateFunc receives the current snapshot and returns the next one. When it
// returns an error or changed == false nothing is written.
type MutateFunc func(current game.Game) (next game.Game, changed bool, err error)

// Store holds one game snapshot per id. Atomic is the only way to change a
// stored game and is serialised per id; different ids never block each other.
type Store interface {
	Create(ctx context.Context, g game.Game) error
	Get(ctx context.Context, id string) (game.Game, error)
	Atomic(ctx context.Context, id string, fn MutateFunc) (game.Game, error)
	Close() error
}

// Error is a backend failure. Transient is set when retries against
// contention were exhausted.
type Error struct {
	Backend   string
	Op        string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s store %s (%s): %v", e.Backend, e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Backend: backend, Op: op, Err: err}
}

// commit validates a snapshot produced by fn before it is written.
func commit(backend string, id string, next game.Game) error {
	if next.ID != id {
		return &Error{Backend: backend, Op: "atomic", Err: fmt.Errorf("snapshot id %q does not match slot %q", next.ID, id)}
	}
	if err := next.Validate(); err != nil {
		return &Error{Backend: backend, Op: "atomic", Err: err}
	}
	return nil
}
