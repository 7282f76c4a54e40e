// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
)

// MemStorage is an in-memory storage.Storage implementation for tests.
type MemStorage struct {
	mu    sync.Mutex
	files map[string][]byte

	// FailSave, when set, makes every Save call return this error.
	FailSave error
}

// NewMemStorage creates an empty in-memory storage backend.
func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string][]byte)}
}

// Save stores the file bytes under the given key.
func (s *MemStorage) Save(_ context.Context, key, _ string, data []byte) error {
	if s.FailSave != nil {
		return s.FailSave
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
	return nil
}

// Open returns a reader over the stored bytes.
func (s *MemStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the stored file.
func (s *MemStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

// PublicURL returns a stable fake URL for the key.
func (s *MemStorage) PublicURL(key string) string {
	return "/uploads/" + key
}

// Len returns the number of stored files.
func (s *MemStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Has reports whether a key is stored.
func (s *MemStorage) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[key]
	return ok
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
