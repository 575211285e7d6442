package probe

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/media/ffprobe"
	"medley/internal/media/thumbs"
	"medley/internal/services"
	"medley/internal/stage"
)

const progressStageProbing = "Probing"

type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Prober extracts technical metadata from media files with ffprobe and
// renders preview thumbnails with ffmpeg when enabled.
type Prober struct {
	cfg     *config.Config
	store   *library.Store
	logger  *slog.Logger
	inspect inspectFunc
	thumbs  *thumbs.Generator
}

// NewProber constructs the metadata extraction stage.
func NewProber(cfg *config.Config, store *library.Store, logger *slog.Logger) *Prober {
	prober := &Prober{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "probe"),
		inspect: ffprobe.Inspect,
	}
	if cfg != nil && cfg.Thumbnails.Enabled {
		prober.thumbs = thumbs.NewGenerator(cfg)
	}
	return prober
}

// Prepare primes progress fields before executing the stage.
func (p *Prober) Prepare(ctx context.Context, item *library.Item) error {
	if p == nil || p.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "probe", "prepare", "Probe stage is not configured", nil)
	}
	item.InitProgress(progressStageProbing, "Extracting technical metadata")
	return nil
}

// Execute runs ffprobe against the item and persists the parsed metadata.
func (p *Prober) Execute(ctx context.Context, item *library.Item) error {
	if p == nil || p.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "probe", "execute", "Probe stage is not configured", nil)
	}
	if item == nil {
		return services.Wrap(services.ErrValidation, "probe", "execute", "Catalog item is nil", nil)
	}

	logger := logging.WithContext(ctx, p.logger)

	if _, err := os.Stat(item.Path); err != nil {
		return services.Wrap(services.ErrNotFound, "probe", "stat file",
			"File vanished before probing; rescan the library", err)
	}

	timeout := time.Duration(p.cfg.Metadata.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := p.inspect(probeCtx, p.cfg.FFprobeBinary(), item.Path)
	if err != nil {
		if probeCtx.Err() != nil && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, "probe", "inspect",
				"ffprobe timed out; raise metadata.timeout_seconds for large files", err)
		}
		return services.Wrap(services.ErrExternalTool, "probe", "inspect",
			"ffprobe could not read the file", err)
	}
	if len(result.Streams) == 0 {
		return services.Wrap(services.ErrValidation, "probe", "inspect",
			"ffprobe found no streams; the file may be corrupt", nil)
	}

	item.MediaInfoJSON = string(result.RawJSON())
	item.Title = DeriveTitle(item.Path, result)

	// A failed thumbnail never fails the stage; the catalog entry is
	// complete without one.
	if p.thumbs != nil {
		thumbPath, thumbErr := p.thumbs.Generate(ctx, item.Path, item.ID, item.MediaType, result.DurationSeconds())
		if thumbErr != nil {
			logger.Warn("thumbnail generation failed", logging.Error(thumbErr))
		} else if thumbPath != "" {
			item.ThumbnailPath = thumbPath
		}
	}

	item.SetProgressComplete(progressStageProbing, "Metadata extracted")

	logger.Info("metadata extracted",
		logging.String("title", item.Title),
		logging.Int("streams", len(result.Streams)),
		logging.Float64("duration_seconds", result.DurationSeconds()))
	return nil
}

// HealthCheck verifies the ffprobe binary is available.
func (p *Prober) HealthCheck(ctx context.Context) stage.Health {
	const name = "probe"
	if p == nil || p.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if _, err := exec.LookPath(p.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, "ffprobe not found in PATH")
	}
	return stage.Healthy(name)
}
