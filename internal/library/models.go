package library

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Status represents the indexing lifecycle of a catalog item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProbing   Status = "probing"
	StatusProbed    Status = "probed"
	StatusTagging   Status = "tagging"
	StatusTagged    Status = "tagged"
	StatusEmbedding Status = "embedding"
	StatusIndexed   Status = "indexed"
	StatusFailed    Status = "failed"
	StatusMissing   Status = "missing"
)

var allStatuses = []Status{
	StatusPending,
	StatusProbing,
	StatusProbed,
	StatusTagging,
	StatusTagged,
	StatusEmbedding,
	StatusIndexed,
	StatusFailed,
	StatusMissing,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusProbing:   {},
	StatusTagging:   {},
	StatusEmbedding: {},
}

type statusTransition struct {
	from Status
	to   Status
}

var stageRollbackTransitions = []statusTransition{
	{from: StatusProbing, to: StatusPending},
	{from: StatusTagging, to: StatusProbed},
	{from: StatusEmbedding, to: StatusTagged},
}

func processingRollbackTransitions() []statusTransition {
	return stageRollbackTransitions
}

// MediaType classifies a catalog item by its broad media family.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
	MediaTypeImage MediaType = "image"
)

// Item represents one scanned media file persisted in SQLite.
type Item struct {
	ID              int64
	Path            string
	Title           string
	MediaType       MediaType
	Status          Status
	SizeBytes       int64
	ModTime         time.Time
	ContentHash     string
	MediaInfoJSON   string
	Description     string
	TagsJSON        string
	EmbeddingModel  string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
	ThumbnailPath   string
}

// Collection groups catalog items under a user-chosen name.
type Collection struct {
	ID          int64
	Name        string
	Description string
	ItemCount   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PathInfo is the slim per-path view the scanner diffs against the filesystem.
type PathInfo struct {
	ID          int64
	Status      Status
	SizeBytes   int64
	ModTime     time.Time
	ContentHash string
}

// HealthSummary describes aggregated catalog counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Indexed    int
	Failed     int
	Missing    int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// ProcessingStatuses returns the statuses that represent in-flight stage work.
func ProcessingStatuses() []Status {
	return []Status{StatusProbing, StatusTagging, StatusEmbedding}
}

// Tags decodes the stored tag list. A malformed payload yields nil.
func (i Item) Tags() []string {
	if strings.TrimSpace(i.TagsJSON) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(i.TagsJSON), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags normalizes and stores the tag list: lowercased, trimmed,
// deduplicated, sorted.
func (i *Item) SetTags(tags []string) {
	cleaned := NormalizeTags(tags)
	if len(cleaned) == 0 {
		i.TagsJSON = ""
		return
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return
	}
	i.TagsJSON = string(data)
}

// NormalizeTags lowercases, trims, deduplicates, and sorts a tag list.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	sort.Strings(cleaned)
	return cleaned
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}
