package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local implements ObjectStore on top of the local filesystem.
// All paths are resolved relative to the configured root directory.
// It is used for development and tests.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir.
// The directory is created (with parents) if it does not already exist.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// OpenLocal opens an existing Local store rooted at dir without creating it.
// Returns ErrRepositoryNotFound if the directory does not exist.
func OpenLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", dir, ErrRepositoryNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open %s: not a directory", dir)
	}
	return &Local{root: abs}, nil
}

// resolve turns a store path into an absolute filesystem path.
func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// Upload writes data to the named path, creating parent directories as
// needed. An existing object is overwritten.
func (l *Local) Upload(_ context.Context, path string, data []byte) error {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// Get reads the named object into memory.
func (l *Local) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(l.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	return data, err
}

// Download copies the named object into destDir, mirroring the
// store-relative layout, and returns the absolute local path.
func (l *Local) Download(_ context.Context, path, destDir string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("download %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

// List walks the root and returns all object paths with the given prefix.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	if _, err := os.Stat(l.root); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s: %w", prefix, ErrRepositoryNotFound)
	}
	var names []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether the named object exists.
func (l *Local) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Compile-time interface check.
var _ ObjectStore = (*Local)(nil)
