package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File keeps the token in a single file, replaced atomically on write.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a store backed by the file at path. The parent directory is
// created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Read(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, unavailable("read", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (f *File) Write(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return unavailable("write", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return unavailable("write", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return unavailable("write", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return unavailable("write", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("write", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return unavailable("write", err)
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("clear", err)
	}
	return nil
}

// Ping verifies that the parent directory can be created.
func (f *File) Ping(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return unavailable("ping", err)
	}
	return nil
}
