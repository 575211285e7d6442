package api

import (
	"encoding/json"
	"sort"

	"medley/internal/deps"
	"medley/internal/library"
	"medley/internal/scanner"
	"medley/internal/search"
	"medley/internal/workflow"
)

// FromItem converts a catalog record to its API representation.
func FromItem(item *library.Item) MediaItem {
	if item == nil {
		return MediaItem{}
	}

	dto := MediaItem{
		ID:             item.ID,
		Path:           item.Path,
		Title:          item.Title,
		MediaType:      string(item.MediaType),
		Status:         string(item.Status),
		SizeBytes:      item.SizeBytes,
		ContentHash:    item.ContentHash,
		Description:    item.Description,
		Tags:           item.Tags(),
		EmbeddingModel: item.EmbeddingModel,
		ThumbnailPath:  item.ThumbnailPath,
		Progress: ItemProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage: item.ErrorMessage,
		NeedsReview:  item.NeedsReview,
		ReviewReason: item.ReviewReason,
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := item.MediaInfoJSON; raw != "" && json.Valid([]byte(raw)) {
		dto.MediaInfo = json.RawMessage(raw)
	}
	return dto
}

// FromItems converts a slice of catalog records into API DTOs.
func FromItems(items []*library.Item) []MediaItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]MediaItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromMatches converts ranked search results into API DTOs.
func FromMatches(matches []search.Match) []SearchMatch {
	out := make([]SearchMatch, 0, len(matches))
	for _, match := range matches {
		out = append(out, SearchMatch{
			Item:       FromItem(match.Item),
			Similarity: match.Similarity,
		})
	}
	return out
}

// FromWorkflowStatus converts a workflow snapshot to its API payload.
func FromWorkflowStatus(status workflow.Status, stats map[library.Status]int) WorkflowStatus {
	counts := make(map[string]int, len(stats))
	for key, count := range stats {
		counts[string(key)] = count
	}

	health := make([]StageHealth, 0, len(status.Stages))
	for _, record := range status.Stages {
		health = append(health, StageHealth{
			Name:   record.Name,
			Ready:  record.Ready,
			Detail: record.Detail,
		})
	}

	return WorkflowStatus{
		Running:     status.Running,
		Counts:      counts,
		LastError:   status.LastError,
		StageHealth: health,
	}
}

// FromDependencyStatuses converts dependency reports to API DTOs.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}

// FromCollection converts a collection record to its API representation.
func FromCollection(collection *library.Collection) Collection {
	if collection == nil {
		return Collection{}
	}
	dto := Collection{
		ID:          collection.ID,
		Name:        collection.Name,
		Description: collection.Description,
		ItemCount:   collection.ItemCount,
	}
	if !collection.CreatedAt.IsZero() {
		dto.CreatedAt = collection.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !collection.UpdatedAt.IsZero() {
		dto.UpdatedAt = collection.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromCollections converts a slice of collection records into API DTOs.
func FromCollections(collections []*library.Collection) []Collection {
	if len(collections) == 0 {
		return nil
	}
	out := make([]Collection, 0, len(collections))
	for _, collection := range collections {
		out = append(out, FromCollection(collection))
	}
	return out
}

// FromScanResult converts a scanner summary to its API payload.
func FromScanResult(result scanner.Result) ScanResponse {
	return ScanResponse{
		ScannedFiles: result.ScannedFiles,
		Added:        result.Added,
		Changed:      result.Changed,
		Rediscovered: result.Rediscovered,
		Missing:      result.Missing,
		Unchanged:    result.Unchanged,
		DurationMS:   result.Duration.Milliseconds(),
	}
}

// SortItemsNewestFirst orders items by CreatedAt descending, breaking ties by
// ID descending.
func SortItemsNewestFirst(items []MediaItem) []MediaItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]MediaItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt == sorted[j].CreatedAt {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return sorted
}
