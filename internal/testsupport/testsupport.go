// Package testsupport provides shared helpers for package tests: temp-dir
// configs, catalog store setup, and file fixtures.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medley/internal/config"
	"medley/internal/library"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Library.Roots = []string{filepath.Join(base, "media")}
	cfg.Tagging.Enabled = false
	cfg.Thumbnails.Enabled = false

	if err := os.MkdirAll(cfg.Library.Roots[0], 0o755); err != nil {
		t.Fatalf("create test media root: %v", err)
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTaggingEnabled enables the tagging stage on the test config.
func WithTaggingEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Tagging.Enabled = true
	}
}

// WithOllamaBaseURL points the test config at a stub Ollama server.
func WithOllamaBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ollama.BaseURL = url
	}
}

// MustOpenStore opens a catalog store for the test config and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()
	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// WriteMediaFile creates a fixture file under the first library root and
// returns its absolute path.
func WriteMediaFile(t testing.TB, cfg *config.Config, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(cfg.Library.Roots[0], name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// SeedItem inserts a pending catalog item for the given fixture file.
func SeedItem(t testing.TB, store *library.Store, path string, mediaType library.MediaType) *library.Item {
	t.Helper()
	info, err := os.Stat(path)
	var size int64
	modTime := time.Now().UTC()
	if err == nil {
		size = info.Size()
		modTime = info.ModTime()
	}
	item, err := store.NewScannedFile(context.Background(), path, mediaType, "hash-"+filepath.Base(path), size, modTime)
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}
