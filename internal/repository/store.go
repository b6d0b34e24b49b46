// Package repository persists the dashboard application's key/value state.
//
// The application stores a handful of keys (the serialized dashboard
// collection, the theme and a transient edit-mode flag), each written and read
// as a whole. Every backend implements Store with last-write-wins semantics.
package repository

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyDashboards     = "dashboards"
	KeyTheme          = "theme"
	KeyOpenInEditMode = "openInEditMode"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store closed")
)

// Store is a durable string-keyed blob store.
type Store interface {
	// Get returns the value stored under key or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
