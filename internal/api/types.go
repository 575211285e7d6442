package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// MediaItem describes a catalog entry in a transport-friendly format.
type MediaItem struct {
	ID             int64           `json:"id"`
	Path           string          `json:"path"`
	Title          string          `json:"title,omitempty"`
	MediaType      string          `json:"mediaType"`
	Status         string          `json:"status"`
	SizeBytes      int64           `json:"sizeBytes"`
	ContentHash    string          `json:"contentHash,omitempty"`
	Description    string          `json:"description,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	EmbeddingModel string          `json:"embeddingModel,omitempty"`
	ThumbnailPath  string          `json:"thumbnailPath,omitempty"`
	Progress       ItemProgress    `json:"progress"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
	NeedsReview    bool            `json:"needsReview"`
	ReviewReason   string          `json:"reviewReason,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	MediaInfo      json.RawMessage `json:"mediaInfo,omitempty"`
}

// ItemProgress captures stage progress information for a catalog entry.
type ItemProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// SearchMatch pairs an item with its similarity score.
type SearchMatch struct {
	Item       MediaItem `json:"item"`
	Similarity float64   `json:"similarity"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Counts      map[string]int `json:"counts"`
	LastError   string         `json:"lastError,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"databasePath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// ItemListResponse wraps a collection of catalog items.
type ItemListResponse struct {
	Items []MediaItem `json:"items"`
}

// ItemResponse wraps a single catalog item.
type ItemResponse struct {
	Item MediaItem `json:"item"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Query   string        `json:"query,omitempty"`
	Matches []SearchMatch `json:"matches"`
}

// TagCountsResponse reports how many items carry each tag.
type TagCountsResponse struct {
	Tags map[string]int `json:"tags"`
}

// Collection describes a user-defined grouping of catalog items.
type Collection struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"itemCount"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// CollectionListResponse wraps every collection with item counts.
type CollectionListResponse struct {
	Collections []Collection `json:"collections"`
}

// CollectionResponse pairs a collection with its member items.
type CollectionResponse struct {
	Collection Collection  `json:"collection"`
	Items      []MediaItem `json:"items"`
}

// CreateCollectionRequest is the POST body for creating a collection.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ScanResponse summarizes a triggered library scan.
type ScanResponse struct {
	ScannedFiles int    `json:"scannedFiles"`
	Added        int    `json:"added"`
	Changed      int    `json:"changed"`
	Rediscovered int    `json:"rediscovered"`
	Missing      int    `json:"missing"`
	Unchanged    int    `json:"unchanged"`
	DurationMS   int64  `json:"durationMs"`
	Error        string `json:"error,omitempty"`
}
