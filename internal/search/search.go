package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/services"
	"medley/internal/services/ollama"
)

// Match pairs a catalog item with its similarity to the query.
type Match struct {
	Item       *library.Item
	Similarity float64
}

// Searcher answers semantic queries against the stored embeddings.
type Searcher struct {
	cfg    *config.Config
	store  *library.Store
	logger *slog.Logger
	client embedClient
}

// NewSearcher constructs a semantic search service.
func NewSearcher(cfg *config.Config, store *library.Store, logger *slog.Logger) *Searcher {
	return &Searcher{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "search"),
		client: ollama.NewClient(ollama.Config{
			BaseURL:        cfg.Ollama.BaseURL,
			TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
		}),
	}
}

// Search embeds the query text and ranks the catalog by cosine similarity.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "query", "Query text is empty", nil)
	}

	model := strings.TrimSpace(s.cfg.Ollama.EmbeddingModel)
	if model == "" {
		return nil, services.Wrap(services.ErrConfiguration, "search", "query", "No embedding model configured", nil)
	}

	queryVector, err := s.client.Embed(ctx, model, query)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "search", "embed query",
			"Ollama embedding request failed; is the server running?", err)
	}

	return s.rank(ctx, queryVector, model, limit, 0)
}

// Similar ranks the catalog against an existing item's stored embedding.
func (s *Searcher) Similar(ctx context.Context, itemID int64, limit int) ([]Match, error) {
	record, err := s.store.Embedding(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load embedding: %w", err)
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "search", "similar",
			fmt.Sprintf("Item %d has no embedding yet", itemID), nil)
	}
	vector, err := DecodeVector(record.Vector)
	if err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return s.rank(ctx, vector, record.Model, limit, itemID)
}

// rank scores every stored embedding against the reference vector. Records
// from a different model or dimensionality are skipped rather than scored
// nonsensically.
func (s *Searcher) rank(ctx context.Context, reference []float32, model string, limit int, excludeID int64) ([]Match, error) {
	if limit <= 0 {
		limit = s.cfg.Search.DefaultLimit
	}
	if limit <= 0 {
		limit = 10
	}
	minSimilarity := s.cfg.Search.MinSimilarity

	records, err := s.store.Embeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}

	type scored struct {
		id         int64
		similarity float64
	}
	var candidates []scored
	skipped := 0
	for _, record := range records {
		if record.ItemID == excludeID {
			continue
		}
		if record.Model != model {
			skipped++
			continue
		}
		vector, err := DecodeVector(record.Vector)
		if err != nil || len(vector) != len(reference) {
			skipped++
			continue
		}
		similarity := CosineSimilarity(reference, vector)
		if similarity < minSimilarity {
			continue
		}
		candidates = append(candidates, scored{id: record.ItemID, similarity: similarity})
	}
	if skipped > 0 {
		s.logger.Debug("skipped incompatible embeddings",
			logging.Int("count", skipped),
			logging.String("model", model))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		item, err := s.store.GetByID(ctx, candidate.id)
		if err != nil {
			return nil, fmt.Errorf("load item %d: %w", candidate.id, err)
		}
		if item == nil {
			continue
		}
		matches = append(matches, Match{Item: item, Similarity: candidate.similarity})
	}
	return matches, nil
}
