package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type localStorage struct {
	root string
}

// NewLocal stores files under the given directory, creating it if needed.
func NewLocal(root string) (Storage, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &localStorage{root: root}, nil
}

func (s *localStorage) Save(ctx context.Context, key, contentType string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Stage in a temp file; the served path only ever sees complete files.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store upload: %w", err)
	}
	return nil
}

func (s *localStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", key, err)
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key))); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (s *localStorage) PublicURL(key string) string {
	return "/uploads/" + key
}
