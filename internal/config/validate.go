package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateOllama(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if len(c.Library.Roots) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/medley/config.toml"
		}
		return fmt.Errorf("library.roots must list at least one directory. Edit %s (create with 'medley config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateScanner() error {
	return ensurePositiveMap(map[string]int{
		"scanner.hash_workers":           c.Scanner.HashWorkers,
		"scanner.watch_debounce_seconds": c.Scanner.WatchDebounceSeconds,
		"metadata.timeout_seconds":       c.Metadata.TimeoutSeconds,
	})
}

func (c *Config) validateOllama() error {
	if !strings.HasPrefix(c.Ollama.BaseURL, "http://") && !strings.HasPrefix(c.Ollama.BaseURL, "https://") {
		return fmt.Errorf("ollama.base_url must be an http(s) URL, got %q", c.Ollama.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"ollama.timeout_seconds": c.Ollama.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Tagging.Enabled {
		if strings.TrimSpace(c.Tagging.Model) == "" {
			return errors.New("tagging.model must be set when tagging.enabled is true")
		}
		return ensurePositiveMap(map[string]int{
			"tagging.max_tags":        c.Tagging.MaxTags,
			"tagging.timeout_seconds": c.Tagging.TimeoutSeconds,
		})
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return errors.New("search.min_similarity must be between 0 and 1")
	}
	return ensurePositiveMap(map[string]int{
		"search.default_limit": c.Search.DefaultLimit,
	})
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	return nil
}
