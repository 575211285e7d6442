package search

import (
	"context"
	"math"
	"strings"
	"testing"

	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/testsupport"
)

type fakeEmbedClient struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedClient) Embed(ctx context.Context, model, input string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vector, ok := f.vectors[input]; ok {
		return vector, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedClient) HealthCheck(ctx context.Context) error { return nil }

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0.5, -1.25, 3.75, 0}
	decoded, err := DecodeVector(EncodeVector(original))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("length mismatch: %d vs %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Fatalf("value mismatch at %d: %f vs %f", i, decoded[i], original[i])
		}
	}
}

func TestDecodeVectorRejectsBadBlobs(t *testing.T) {
	if _, err := DecodeVector(nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for misaligned blob")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Fatalf("opposite vectors: %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("mismatched dimensions should score 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector should score 0, got %f", got)
	}
}

func TestBuildDocumentIncludesMetadata(t *testing.T) {
	item := &library.Item{
		Title:         "Kind of Blue",
		MediaType:     library.MediaTypeAudio,
		Description:   "A landmark modal jazz record.",
		MediaInfoJSON: `{"streams":[],"format":{"tags":{"artist":"Miles Davis","genre":"Jazz"}}}`,
	}
	item.SetTags([]string{"jazz", "trumpet"})

	document := BuildDocument(item)
	for _, want := range []string{"Kind of Blue", "audio", "jazz, trumpet", "modal jazz", "Miles Davis"} {
		if !strings.Contains(document, want) {
			t.Fatalf("document missing %q:\n%s", want, document)
		}
	}
}

func TestSearchRanksBySimilarity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Search.MinSimilarity = 0.1
	store := testsupport.MustOpenStore(t, cfg)

	searcher := NewSearcher(cfg, store, logging.NewNop())
	searcher.client = &fakeEmbedClient{vectors: map[string][]float32{
		"calm piano": {1, 0, 0},
	}}

	vectors := [][]float32{
		{0.9, 0.1, 0}, // close
		{0.5, 0.5, 0}, // middling
		{0, 1, 0},     // orthogonal, filtered by min similarity
		{-1, 0, 0},    // negative, filtered
	}
	for i, vector := range vectors {
		path := testsupport.WriteMediaFile(t, cfg, "file"+string(rune('a'+i))+".mp3", []byte{byte(i)})
		item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)
		if err := store.SetEmbedding(context.Background(), item.ID, cfg.Ollama.EmbeddingModel, EncodeVector(vector)); err != nil {
			t.Fatalf("set embedding: %v", err)
		}
	}

	matches, err := searcher.Search(context.Background(), "calm piano", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches above threshold, got %d", len(matches))
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Fatal("matches not sorted by similarity")
	}
}

func TestSearchSkipsModelMismatches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	searcher := NewSearcher(cfg, store, logging.NewNop())
	searcher.client = &fakeEmbedClient{}

	path := testsupport.WriteMediaFile(t, cfg, "other.mp3", []byte("x"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)
	if err := store.SetEmbedding(context.Background(), item.ID, "some-other-model", EncodeVector([]float32{1, 0, 0})); err != nil {
		t.Fatalf("set embedding: %v", err)
	}

	matches, err := searcher.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches across models, got %d", len(matches))
	}
}

func TestSimilarExcludesSelf(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Search.MinSimilarity = 0
	store := testsupport.MustOpenStore(t, cfg)

	searcher := NewSearcher(cfg, store, logging.NewNop())
	searcher.client = &fakeEmbedClient{}

	var first *library.Item
	for i, vector := range [][]float32{{1, 0, 0}, {0.9, 0.1, 0}} {
		path := testsupport.WriteMediaFile(t, cfg, "sim"+string(rune('a'+i))+".mp3", []byte{byte(i)})
		item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)
		if err := store.SetEmbedding(context.Background(), item.ID, cfg.Ollama.EmbeddingModel, EncodeVector(vector)); err != nil {
			t.Fatalf("set embedding: %v", err)
		}
		if first == nil {
			first = item
		}
	}

	matches, err := searcher.Similar(context.Background(), first.ID, 10)
	if err != nil {
		t.Fatalf("Similar failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Item.ID == first.ID {
		t.Fatal("result contains the reference item")
	}
}

func TestSimilarRequiresEmbedding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	searcher := NewSearcher(cfg, store, logging.NewNop())
	searcher.client = &fakeEmbedClient{}

	path := testsupport.WriteMediaFile(t, cfg, "bare.mp3", []byte("x"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeAudio)

	if _, err := searcher.Similar(context.Background(), item.ID, 5); err == nil {
		t.Fatal("expected error for item without embedding")
	}
}
