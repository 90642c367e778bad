package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File keeps the session record in a single file readable only by its owner.
type File struct {
	path string
}

// NewFile returns a File store at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns ~/.breakfast/session.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".breakfast", "session"), nil
}

// Path returns the file backing the store.
func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store.File.Load: %w", err)
	}
	record := strings.TrimSpace(string(data))
	if record == "" {
		return "", ErrNotFound
	}
	return record, nil
}

// Save writes record atomically: a temp file in the same directory is renamed over the target.
func (f *File) Save(ctx context.Context, record string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("store.File.Save: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("store.File.Save: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("store.File.Save: %w", err)
	}
	if _, err := tmp.WriteString(record); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("store.File.Save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store.File.Save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store.File.Save: %w", err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store.File.Clear: %w", err)
	}
	return nil
}
