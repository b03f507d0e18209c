package store

import (
	"errors"
	"fmt"
)

// Errors returned by the store. Match them with errors.Is; the returned
// error carries the operation and id as context.
var (
	// ErrNotFound means a task, list, tag or subtask id is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation means the request breaks an invariant: an empty
	// title, deleting the default list, reordering a trashed task.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrStoreFailure wraps driver and commit errors. The mutation did not
	// take effect.
	ErrStoreFailure = errors.New("store failure")
)

// storeFailure classifies a driver error as ErrStoreFailure while keeping
// the cause reachable through errors.Is/As.
func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidOperation)...)
}
