package search

import (
	"context"
	"errors"
	"testing"

	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/services"
	"medley/internal/testsupport"
)

func TestEmbedderStoresVector(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	embedder := NewEmbedder(cfg, store, logging.NewNop())
	embedder.client = &fakeEmbedClient{vectors: map[string][]float32{}}

	path := testsupport.WriteMediaFile(t, cfg, "track.mp3", []byte("x"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)
	item.Title = "Quiet Nights"

	if err := embedder.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := embedder.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.EmbeddingModel != cfg.Ollama.EmbeddingModel {
		t.Fatalf("unexpected embedding model: %q", item.EmbeddingModel)
	}

	record, err := store.Embedding(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("load embedding: %v", err)
	}
	if record == nil || record.Model != cfg.Ollama.EmbeddingModel {
		t.Fatalf("unexpected record: %+v", record)
	}
	vector, err := DecodeVector(record.Vector)
	if err != nil || len(vector) != 3 {
		t.Fatalf("unexpected vector: %v, %v", vector, err)
	}
}

func TestEmbedderClassifiesOllamaFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	embedder := NewEmbedder(cfg, store, logging.NewNop())
	embedder.client = &fakeEmbedClient{err: errors.New("connection refused")}

	path := testsupport.WriteMediaFile(t, cfg, "fail.mp3", []byte("x"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)
	item.Title = "Anything"

	err := embedder.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestEmbedderRequiresModel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ollama.EmbeddingModel = ""
	store := testsupport.MustOpenStore(t, cfg)
	embedder := NewEmbedder(cfg, store, logging.NewNop())
	embedder.client = &fakeEmbedClient{}

	path := testsupport.WriteMediaFile(t, cfg, "nomodel.mp3", []byte("x"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)

	err := embedder.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
