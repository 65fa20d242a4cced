package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested document does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is a byte-oriented document store addressed by slash-separated keys.
// Write replaces the whole document.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}
