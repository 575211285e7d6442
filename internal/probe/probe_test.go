package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/media/ffprobe"
	"medley/internal/services"
	"medley/internal/testsupport"
)

const fakeProbeOutput = `{
  "streams": [{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720}],
  "format": {"format_name": "matroska,webm", "duration": "120.5", "tags": {"title": "Tagged Title"}}
}`

func newTestProber(t *testing.T, inspect inspectFunc) (*Prober, *library.Store, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	prober := NewProber(cfg, store, logging.NewNop())
	if inspect != nil {
		prober.inspect = inspect
	}
	path := testsupport.WriteMediaFile(t, cfg, "the.big.film.mkv", []byte("fake video"))
	return prober, store, path
}

func TestExecuteStoresMetadataAndTitle(t *testing.T) {
	prober, store, path := newTestProber(t, func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(fakeProbeOutput))
	})
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	if err := prober.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := prober.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.Title != "Tagged Title" {
		t.Fatalf("unexpected title: %q", item.Title)
	}
	if !strings.Contains(item.MediaInfoJSON, "h264") {
		t.Fatalf("expected stored metadata, got %q", item.MediaInfoJSON)
	}
}

func TestExecuteFallsBackToFilenameTitle(t *testing.T) {
	output := `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"format_name":"matroska"}}`
	prober, store, path := newTestProber(t, func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(output))
	})
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	if err := prober.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.Title != "The Big Film" {
		t.Fatalf("unexpected title: %q", item.Title)
	}
}

func TestExecuteClassifiesToolFailures(t *testing.T) {
	prober, store, path := newTestProber(t, func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("exit status 1")
	})
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	err := prober.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExecuteFlagsMissingFile(t *testing.T) {
	prober, store, path := newTestProber(t, nil)
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)
	item.Path = path + ".gone"

	err := prober.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !library.NeedsReview(err) {
		t.Fatal("expected missing file to need review")
	}
}

func TestExecuteRejectsStreamlessFiles(t *testing.T) {
	prober, store, path := newTestProber(t, func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(`{"streams":[],"format":{"format_name":"matroska"}}`))
	})
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	err := prober.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// writeFakeFFmpeg drops an executable script standing in for ffmpeg.
func writeFakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

func TestExecuteGeneratesVideoThumbnail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Thumbnails.Enabled = true
	cfg.Thumbnails.FFmpegBinary = writeFakeFFmpeg(t, "#!/bin/sh\nfor out; do :; done\nprintf 'jpg' > \"$out\"\n")
	store := testsupport.MustOpenStore(t, cfg)
	prober := NewProber(cfg, store, logging.NewNop())
	prober.inspect = func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(fakeProbeOutput))
	}
	path := testsupport.WriteMediaFile(t, cfg, "film.mkv", []byte("fake video"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	if err := prober.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := filepath.Join(cfg.ThumbnailDir(), fmt.Sprintf("%d.jpg", item.ID))
	if item.ThumbnailPath != want {
		t.Fatalf("unexpected thumbnail path: %q", item.ThumbnailPath)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected thumbnail file: %v", err)
	}
}

func TestExecuteSurvivesThumbnailFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Thumbnails.Enabled = true
	cfg.Thumbnails.FFmpegBinary = writeFakeFFmpeg(t, "#!/bin/sh\nexit 1\n")
	store := testsupport.MustOpenStore(t, cfg)
	prober := NewProber(cfg, store, logging.NewNop())
	prober.inspect = func(ctx context.Context, binary, p string) (ffprobe.Result, error) {
		return ffprobe.Parse([]byte(fakeProbeOutput))
	}
	path := testsupport.WriteMediaFile(t, cfg, "film.mkv", []byte("fake video"))
	item := testsupport.SeedItem(t, store, path, library.MediaTypeVideo)

	if err := prober.Execute(context.Background(), item); err != nil {
		t.Fatalf("a failed thumbnail must not fail the stage: %v", err)
	}
	if item.ThumbnailPath != "" {
		t.Fatalf("expected no thumbnail path, got %q", item.ThumbnailPath)
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/media/the.big.lebowski_1998.mkv", "The Big Lebowski 1998"},
		{"/media/Concert Live.flac", "Concert Live"},
		{"/media/IMG_1234.jpg", "IMG 1234"},
		{"/media/snake_case_name.mp4", "Snake Case Name"},
	}
	for _, tc := range cases {
		if got := TitleFromFilename(tc.path); got != tc.want {
			t.Fatalf("TitleFromFilename(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
