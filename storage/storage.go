// Package storage provides the mirror's file store.
//
// The sync engine addresses everything by slash-separated paths relative to
// one output root. Two backends exist: the local filesystem and S3. Writes
// are atomic at file granularity: a write either fully lands or the prior
// content remains visible, never a torn file.
package storage

import "context"

// Store is the storage capability consumed by the sync engine.
type Store interface {
	// WriteFile writes data at path, creating parents as needed.
	// The write is atomic: readers never observe a partial file.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ReadFile returns the content at path, or ErrNotFound.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether path holds a file.
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the byte size of the file at path, or ErrNotFound.
	Size(ctx context.Context, path string) (int64, error)

	// List returns the paths of all files under prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}
