package ffprobe

import (
	"context"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 6, "sample_rate": "48000"},
    {"index": 2, "codec_name": "aac", "codec_type": "audio", "channels": 2}
  ],
  "format": {
    "filename": "/media/movie.mkv",
    "nb_streams": 3,
    "duration": "5400.25",
    "size": "734003200",
    "bit_rate": "1087573",
    "format_name": "matroska,webm",
    "tags": {"TITLE": "Example Movie", "ARTIST": "Someone"}
  }
}`

func TestParseExtractsStreamsAndFormat(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if got := result.DurationSeconds(); got != 5400.25 {
		t.Fatalf("unexpected duration: %f", got)
	}
	if got := result.SizeBytes(); got != 734003200 {
		t.Fatalf("unexpected size: %d", got)
	}
	width, height := result.Resolution()
	if width != 1920 || height != 1080 {
		t.Fatalf("unexpected resolution: %dx%d", width, height)
	}
	codecs := result.Codecs()
	if len(codecs) != 2 || codecs[0] != "h264" || codecs[1] != "aac" {
		t.Fatalf("unexpected codecs: %v", codecs)
	}
}

func TestTagLookupIsCaseInsensitive(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := result.Tag("title"); got != "Example Movie" {
		t.Fatalf("unexpected title tag: %q", got)
	}
	if got := result.Tag("album"); got != "" {
		t.Fatalf("expected empty tag, got %q", got)
	}
}

func TestDurationFallsBackToStream(t *testing.T) {
	payload := `{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","duration":"182.5"}],"format":{"format_name":"mp3"}}`
	result, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := result.DurationSeconds(); got != 182.5 {
		t.Fatalf("unexpected duration: %f", got)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
