package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Library describes the directories medley watches and which files it catalogs.
type Library struct {
	Roots           []string `toml:"roots"`
	VideoExtensions []string `toml:"video_extensions"`
	AudioExtensions []string `toml:"audio_extensions"`
	ImageExtensions []string `toml:"image_extensions"`
	ExcludePatterns []string `toml:"exclude_patterns"`
}

// Scanner contains configuration for library scanning.
type Scanner struct {
	HashWorkers          int  `toml:"hash_workers"`
	RescanIntervalMins   int  `toml:"rescan_interval_minutes"`
	WatchEnabled         bool `toml:"watch_enabled"`
	WatchDebounceSeconds int  `toml:"watch_debounce_seconds"`
}

// Metadata contains configuration for technical metadata extraction.
type Metadata struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Thumbnails contains configuration for preview image generation.
type Thumbnails struct {
	Enabled        bool   `toml:"enabled"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	MaxDimension   int    `toml:"max_dimension"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Ollama contains connection settings for the local Ollama server.
type Ollama struct {
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tagging contains configuration for AI-assisted tag generation.
type Tagging struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model"`
	VisionModel    string `toml:"vision_model"`
	MaxTags        int    `toml:"max_tags"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Search contains configuration for semantic search ranking.
type Search struct {
	DefaultLimit  int     `toml:"default_limit"`
	MinSimilarity float64 `toml:"min_similarity"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	ScanComplete       bool   `toml:"scan_complete"`
	IndexComplete      bool   `toml:"index_complete"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Config encapsulates all configuration values for medley.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Library: scanned roots and file extension classes
//   - Scanner: hashing concurrency, rescans, and watch mode
//   - Metadata: ffprobe invocation settings
//   - Thumbnails: ffmpeg preview image generation
//   - Ollama: embedding and chat model connection settings
//   - Tagging: AI tag generation toggles and models
//   - Search: semantic search ranking thresholds
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Library       Library       `toml:"library"`
	Scanner       Scanner       `toml:"scanner"`
	Metadata      Metadata      `toml:"metadata"`
	Thumbnails    Thumbnails    `toml:"thumbnails"`
	Ollama        Ollama        `toml:"ollama"`
	Tagging       Tagging       `toml:"tagging"`
	Search        Search        `toml:"search"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/medley/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv("MEDLEY_CONFIG")
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("medley.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Library roots are left alone; they belong to the user.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the catalog database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// FFprobeBinary returns the ffprobe executable used for metadata extraction.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Metadata.FFprobeBinary) != "" {
		return c.Metadata.FFprobeBinary
	}
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable used for thumbnail generation.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Thumbnails.FFmpegBinary) != "" {
		return c.Thumbnails.FFmpegBinary
	}
	return "ffmpeg"
}

// ThumbnailDir returns the directory holding generated preview images.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.Paths.DataDir, "thumbnails")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
