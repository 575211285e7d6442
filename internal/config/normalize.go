package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeScanner()
	c.normalizeThumbnails()
	c.normalizeOllama()
	c.normalizeTagging()
	c.normalizeSearch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("MEDLEY_API_TOKEN"); ok {
			c.Paths.APIToken = value
		}
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	roots := make([]string, 0, len(c.Library.Roots))
	for _, root := range c.Library.Roots {
		trimmed := strings.TrimSpace(root)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("library.roots: %w", err)
		}
		roots = append(roots, expanded)
	}
	c.Library.Roots = roots

	c.Library.VideoExtensions = normalizeExtensions(c.Library.VideoExtensions, defaultVideoExtensions())
	c.Library.AudioExtensions = normalizeExtensions(c.Library.AudioExtensions, defaultAudioExtensions())
	c.Library.ImageExtensions = normalizeExtensions(c.Library.ImageExtensions, defaultImageExtensions())
	return nil
}

func normalizeExtensions(values []string, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c *Config) normalizeScanner() {
	if c.Scanner.HashWorkers <= 0 {
		c.Scanner.HashWorkers = defaultHashWorkers
	}
	if c.Scanner.WatchDebounceSeconds <= 0 {
		c.Scanner.WatchDebounceSeconds = defaultWatchDebounceSeconds
	}
}

func (c *Config) normalizeThumbnails() {
	if c.Thumbnails.MaxDimension <= 0 {
		c.Thumbnails.MaxDimension = defaultThumbnailDimension
	}
	if c.Thumbnails.TimeoutSeconds <= 0 {
		c.Thumbnails.TimeoutSeconds = defaultThumbnailTimeout
	}
}

func (c *Config) normalizeOllama() {
	c.Ollama.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ollama.BaseURL), "/")
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaultOllamaBaseURL
	}
	if strings.TrimSpace(c.Ollama.EmbeddingModel) == "" {
		c.Ollama.EmbeddingModel = defaultEmbeddingModel
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		c.Ollama.TimeoutSeconds = defaultOllamaTimeout
	}
}

func (c *Config) normalizeTagging() {
	if strings.TrimSpace(c.Tagging.Model) == "" {
		c.Tagging.Model = defaultTaggingModel
	}
	if strings.TrimSpace(c.Tagging.VisionModel) == "" {
		c.Tagging.VisionModel = defaultVisionModel
	}
	if c.Tagging.MaxTags <= 0 {
		c.Tagging.MaxTags = defaultMaxTags
	}
	if c.Tagging.TimeoutSeconds <= 0 {
		c.Tagging.TimeoutSeconds = defaultTaggingTimeout
	}
}

func (c *Config) normalizeSearch() {
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = defaultSearchLimit
	}
	if c.Search.MinSimilarity <= 0 {
		c.Search.MinSimilarity = defaultMinSimilarity
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
