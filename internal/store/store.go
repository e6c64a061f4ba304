// Package store checks and records catalog entries in a relational table.
package store

import (
	"context"
	"errors"
	"fmt"

	"extract-catalog/internal/catalog"
)

// Repository is the persistence side of an ingestion run.
type Repository interface {
	// Exists reports whether key is already recorded. Errors never mean "no".
	Exists(ctx context.Context, key string) (bool, error)
	// InsertBatch writes entries in one transaction, in order, and returns
	// how many were committed. Nothing is committed on error.
	InsertBatch(ctx context.Context, entries []catalog.Entry) (int, error)
}

// StoreError is any failure talking to the store.
type StoreError struct {
	Op  string // connect, exists, begin, insert, commit
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUnreachable reports whether err means the store could not be opened at
// all, as opposed to a single statement failing.
func IsUnreachable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Op == "connect"
}

type backend interface {
	Repository
	Close() error
}
