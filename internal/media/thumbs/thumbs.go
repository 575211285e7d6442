package thumbs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"medley/internal/config"
	"medley/internal/library"
)

type renderFunc func(ctx context.Context, binary string, args []string) error

// Generator renders JPEG preview images for catalog items with ffmpeg.
// Video thumbnails grab a frame 10% into the file; image thumbnails are
// scaled copies. Audio files have no preview.
type Generator struct {
	dir     string
	binary  string
	size    int
	timeout time.Duration
	render  renderFunc
}

// NewGenerator builds a generator writing to the config's thumbnail directory.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		dir:     cfg.ThumbnailDir(),
		binary:  cfg.FFmpegBinary(),
		size:    cfg.Thumbnails.MaxDimension,
		timeout: time.Duration(cfg.Thumbnails.TimeoutSeconds) * time.Second,
		render:  runFFmpeg,
	}
}

// Path returns where the thumbnail for an item lives, whether or not it exists.
func (g *Generator) Path(id int64) string {
	return filepath.Join(g.dir, fmt.Sprintf("%d.jpg", id))
}

// Generate renders a thumbnail and returns its path. Media types without a
// visual representation return an empty path and no error.
func (g *Generator) Generate(ctx context.Context, path string, id int64, mediaType library.MediaType, durationSeconds float64) (string, error) {
	if g == nil {
		return "", nil
	}
	if mediaType != library.MediaTypeVideo && mediaType != library.MediaTypeImage {
		return "", nil
	}
	if strings.TrimSpace(path) == "" {
		return "", errors.New("thumbnail: empty source path")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}

	out := g.Path(id)
	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", g.size, g.size)

	args := []string{"-y", "-v", "error"}
	if mediaType == library.MediaTypeVideo && durationSeconds > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.2f", durationSeconds*0.1))
	}
	args = append(args, "-i", path, "-frames:v", "1", "-vf", scale, "-q:v", "2", out)

	renderCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.render(renderCtx, g.binary, args); err != nil {
		return "", fmt.Errorf("render thumbnail: %w", err)
	}
	return out, nil
}

// Remove deletes an item's thumbnail file if present.
func (g *Generator) Remove(id int64) error {
	if g == nil {
		return nil
	}
	err := os.Remove(g.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}

func runFFmpeg(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
