package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/media/ffprobe"
	"medley/internal/services"
	"medley/internal/services/ollama"
	"medley/internal/stage"
)

const progressStageEmbedding = "Embedding"

type embedClient interface {
	Embed(ctx context.Context, model, input string) ([]float32, error)
	HealthCheck(ctx context.Context) error
}

// Embedder is the workflow stage that turns an item's accumulated metadata
// into an embedding vector for semantic search.
type Embedder struct {
	cfg    *config.Config
	store  *library.Store
	logger *slog.Logger
	client embedClient
}

// NewEmbedder constructs the embedding stage.
func NewEmbedder(cfg *config.Config, store *library.Store, logger *slog.Logger) *Embedder {
	return &Embedder{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "embed"),
		client: ollama.NewClient(ollama.Config{
			BaseURL:        cfg.Ollama.BaseURL,
			TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
		}),
	}
}

// Prepare primes progress fields before executing the stage.
func (e *Embedder) Prepare(ctx context.Context, item *library.Item) error {
	if e == nil || e.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "embed", "prepare", "Embedding stage is not configured", nil)
	}
	item.InitProgress(progressStageEmbedding, "Computing embedding vector")
	return nil
}

// Execute embeds the item's document text and stores the vector.
func (e *Embedder) Execute(ctx context.Context, item *library.Item) error {
	if e == nil || e.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "embed", "execute", "Embedding stage is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "embed", "execute", "Catalog item is nil", nil)
	}

	model := strings.TrimSpace(e.cfg.Ollama.EmbeddingModel)
	if model == "" {
		return services.Wrap(services.ErrConfiguration, "embed", "execute",
			"No embedding model configured", nil)
	}

	document := BuildDocument(item)
	if strings.TrimSpace(document) == "" {
		return services.Wrap(services.ErrValidation, "embed", "build document",
			"Item has no describable metadata to embed", nil)
	}

	timeout := time.Duration(e.cfg.Ollama.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	embedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vector, err := e.client.Embed(embedCtx, model, document)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "embed", "request",
			"Ollama embedding request failed; is the server running?", err)
	}

	if err := e.store.SetEmbedding(ctx, item.ID, model, EncodeVector(vector)); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	item.EmbeddingModel = model
	item.SetProgressComplete(progressStageEmbedding, "Embedding stored")

	logging.WithContext(ctx, e.logger).Info("embedding stored",
		logging.String("model", model),
		logging.Int("dimensions", len(vector)))
	return nil
}

// HealthCheck verifies the Ollama server is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) stage.Health {
	const name = "embed"
	if e == nil || e.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if err := e.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, "Ollama unreachable: "+err.Error())
	}
	return stage.Healthy(name)
}

// BuildDocument flattens an item's title, tags, description, and salient
// container tags into the text that gets embedded. Queries are matched
// against this same shape of text, so the richer the document, the better
// the search.
func BuildDocument(item *library.Item) string {
	var parts []string
	if title := strings.TrimSpace(item.Title); title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, string(item.MediaType))
	if tags := item.Tags(); len(tags) > 0 {
		parts = append(parts, strings.Join(tags, ", "))
	}
	if description := strings.TrimSpace(item.Description); description != "" {
		parts = append(parts, description)
	}
	if result, err := ffprobe.Parse([]byte(item.MediaInfoJSON)); err == nil {
		for _, key := range []string{"artist", "album", "genre", "show"} {
			if value := result.Tag(key); value != "" {
				parts = append(parts, value)
			}
		}
	}
	return strings.Join(parts, "\n")
}
