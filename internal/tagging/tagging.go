package tagging

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"strings"
	"time"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/services"
	"medley/internal/services/ollama"
	"medley/internal/stage"
)

const progressStageTagging = "Tagging"

// maxVisionImageBytes caps how much image data is shipped to the vision model.
const maxVisionImageBytes = 20 << 20

type modelClient interface {
	ChatJSON(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
	GenerateVisionJSON(ctx context.Context, model, prompt string, images []string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Tagger generates a description and tag set for cataloged items using a
// local language model.
type Tagger struct {
	cfg    *config.Config
	store  *library.Store
	logger *slog.Logger
	client modelClient
}

// NewTagger constructs the auto-tagging stage.
func NewTagger(cfg *config.Config, store *library.Store, logger *slog.Logger) *Tagger {
	return &Tagger{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "tagging"),
		client: ollama.NewClient(ollama.Config{
			BaseURL:        cfg.Ollama.BaseURL,
			TimeoutSeconds: cfg.Tagging.TimeoutSeconds,
		}),
	}
}

type tagPayload struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Prepare primes progress fields before executing the stage.
func (t *Tagger) Prepare(ctx context.Context, item *library.Item) error {
	if t == nil || t.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "tagging", "prepare", "Tagging stage is not configured", nil)
	}
	item.InitProgress(progressStageTagging, "Generating description and tags")
	return nil
}

// Execute asks the model for a description and tags, then stores both.
func (t *Tagger) Execute(ctx context.Context, item *library.Item) error {
	if t == nil || t.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "tagging", "execute", "Tagging stage is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "tagging", "execute", "Catalog item is nil", nil)
	}

	logger := logging.WithContext(ctx, t.logger)

	timeout := time.Duration(t.cfg.Tagging.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	tagCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		raw string
		err error
	)
	if item.MediaType == library.MediaTypeImage {
		raw, err = t.describeImage(tagCtx, item)
	} else {
		raw, err = t.describeFromMetadata(tagCtx, item)
	}
	if err != nil {
		return err
	}

	var payload tagPayload
	if err := ollama.DecodeModelJSON(raw, &payload); err != nil {
		return services.Wrap(services.ErrTransient, "tagging", "decode response",
			"Model returned unparseable JSON", err)
	}

	description := strings.TrimSpace(payload.Description)
	tags := library.NormalizeTags(payload.Tags)
	if description == "" && len(tags) == 0 {
		return services.Wrap(services.ErrTransient, "tagging", "decode response",
			"Model returned neither description nor tags", nil)
	}
	if max := t.cfg.Tagging.MaxTags; max > 0 && len(tags) > max {
		tags = tags[:max]
	}

	item.Description = description
	item.SetTags(tags)
	item.SetProgressComplete(progressStageTagging, "Tags generated")

	logger.Info("tags generated",
		logging.Int("tags", len(tags)),
		logging.Int("description_length", len(description)))
	return nil
}

func (t *Tagger) describeFromMetadata(ctx context.Context, item *library.Item) (string, error) {
	model := strings.TrimSpace(t.cfg.Tagging.Model)
	if model == "" {
		return "", services.Wrap(services.ErrConfiguration, "tagging", "chat",
			"No tagging model configured", nil)
	}
	raw, err := t.client.ChatJSON(ctx, model, systemPrompt, buildMetadataPrompt(item))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "tagging", "chat",
			"Ollama chat request failed; is the server running?", err)
	}
	return raw, nil
}

func (t *Tagger) describeImage(ctx context.Context, item *library.Item) (string, error) {
	model := strings.TrimSpace(t.cfg.Tagging.VisionModel)
	if model == "" {
		return "", services.Wrap(services.ErrConfiguration, "tagging", "vision",
			"No vision model configured for images", nil)
	}

	info, err := os.Stat(item.Path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "tagging", "read image",
			"Image vanished before tagging; rescan the library", err)
	}
	if info.Size() > maxVisionImageBytes {
		// Oversized originals get metadata-only tagging instead.
		return t.describeFromMetadata(ctx, item)
	}

	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "tagging", "read image",
			"Could not read image file", err)
	}

	raw, err := t.client.GenerateVisionJSON(ctx, model, visionPrompt,
		[]string{base64.StdEncoding.EncodeToString(data)})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "tagging", "vision",
			"Ollama vision request failed; is the server running?", err)
	}
	return raw, nil
}

// HealthCheck verifies the Ollama server is reachable.
func (t *Tagger) HealthCheck(ctx context.Context) stage.Health {
	const name = "tagging"
	if t == nil || t.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if err := t.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, "Ollama unreachable: "+err.Error())
	}
	return stage.Healthy(name)
}
