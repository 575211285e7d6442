package config

const (
	defaultDataDir              = "~/.local/share/medley"
	defaultLogDir               = "~/.local/share/medley/logs"
	defaultAPIBind              = "127.0.0.1:7718"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultHashWorkers          = 4
	defaultRescanIntervalMins   = 60
	defaultWatchDebounceSeconds = 5
	defaultFFprobeTimeout       = 60
	defaultThumbnailDimension   = 300
	defaultThumbnailTimeout     = 30
	defaultOllamaBaseURL        = "http://127.0.0.1:11434"
	defaultEmbeddingModel       = "nomic-embed-text"
	defaultOllamaTimeout        = 120
	defaultTaggingModel         = "llama3.2"
	defaultVisionModel          = "llava"
	defaultMaxTags              = 10
	defaultTaggingTimeout       = 180
	defaultSearchLimit          = 20
	defaultMinSimilarity        = 0.25
	defaultQueuePollInterval    = 5
	defaultErrorRetryInterval   = 10
	defaultHeartbeatInterval    = 15
	defaultHeartbeatTimeout     = 120
	defaultNotifyDedupSeconds   = 600
)

func defaultVideoExtensions() []string {
	return []string{".mkv", ".mp4", ".avi", ".mov", ".webm", ".m4v", ".mpg", ".mpeg", ".ts", ".wmv"}
}

func defaultAudioExtensions() []string {
	return []string{".mp3", ".flac", ".ogg", ".opus", ".m4a", ".aac", ".wav", ".wma"}
}

func defaultImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".heic"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Library: Library{
			VideoExtensions: defaultVideoExtensions(),
			AudioExtensions: defaultAudioExtensions(),
			ImageExtensions: defaultImageExtensions(),
		},
		Scanner: Scanner{
			HashWorkers:          defaultHashWorkers,
			RescanIntervalMins:   defaultRescanIntervalMins,
			WatchDebounceSeconds: defaultWatchDebounceSeconds,
		},
		Metadata: Metadata{
			TimeoutSeconds: defaultFFprobeTimeout,
		},
		Thumbnails: Thumbnails{
			Enabled:        true,
			MaxDimension:   defaultThumbnailDimension,
			TimeoutSeconds: defaultThumbnailTimeout,
		},
		Ollama: Ollama{
			BaseURL:        defaultOllamaBaseURL,
			EmbeddingModel: defaultEmbeddingModel,
			TimeoutSeconds: defaultOllamaTimeout,
		},
		Tagging: Tagging{
			Enabled:        true,
			Model:          defaultTaggingModel,
			VisionModel:    defaultVisionModel,
			MaxTags:        defaultMaxTags,
			TimeoutSeconds: defaultTaggingTimeout,
		},
		Search: Search{
			DefaultLimit:  defaultSearchLimit,
			MinSimilarity: defaultMinSimilarity,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout:     10,
			ScanComplete:       true,
			IndexComplete:      true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupSeconds,
		},
	}
}
