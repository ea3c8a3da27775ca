package store

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when an object does not exist in the store.
//
// Implementations return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// ErrRepositoryNotFound is returned when the target repository (bucket or
// root directory) does not exist at all. Callers treat this as fatal: a
// missing repository cannot be recovered by retrying individual operations.
var ErrRepositoryNotFound = errors.New("repository not found")

// ObjectStore is the key-addressed blob storage collaborator.
//
// Paths are forward-slash separated and relative to the configured
// repository prefix. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Upload writes data to the named path, overwriting any existing object.
	Upload(ctx context.Context, path string, data []byte) error

	// Get fetches the named object into memory. Returns an error wrapping
	// ErrNotFound if the object does not exist.
	Get(ctx context.Context, path string) ([]byte, error)

	// Download fetches the named object into destDir, mirroring the
	// store-relative path, and returns the absolute local path of the
	// downloaded file. Returns an error wrapping ErrNotFound if the
	// object does not exist.
	Download(ctx context.Context, path, destDir string) (string, error)

	// List returns all object paths with the given prefix, sorted.
	// Returns ErrRepositoryNotFound if the repository itself is missing.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether the named object exists.
	Exists(ctx context.Context, path string) (bool, error)
}
