package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, path, title, media_type, status, size_bytes, mod_time, content_hash, media_info_json, description, tags_json, embedding_model, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, needs_review, review_reason, thumbnail_path"

// storedTimeFormat keeps every digit of the fraction so UTC timestamps stay
// fixed-width and lexicographic string comparison in SQL matches time order.
// RFC3339Nano trims trailing zeros, which breaks sub-second "<" comparisons.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(storedTimeFormat)
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		path             string
		title            sql.NullString
		mediaType        string
		statusStr        string
		sizeBytes        sql.NullInt64
		modTimeRaw       sql.NullString
		contentHash      sql.NullString
		mediaInfo        sql.NullString
		description      sql.NullString
		tagsJSON         sql.NullString
		embeddingModel   sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
		thumbnailPath    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&path,
		&title,
		&mediaType,
		&statusStr,
		&sizeBytes,
		&modTimeRaw,
		&contentHash,
		&mediaInfo,
		&description,
		&tagsJSON,
		&embeddingModel,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
		&thumbnailPath,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Path:            path,
		Title:           title.String,
		MediaType:       MediaType(mediaType),
		Status:          Status(statusStr),
		SizeBytes:       sizeBytes.Int64,
		ContentHash:     contentHash.String,
		MediaInfoJSON:   mediaInfo.String,
		Description:     description.String,
		TagsJSON:        tagsJSON.String,
		EmbeddingModel:  embeddingModel.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ReviewReason:    reviewReason.String,
		ThumbnailPath:   thumbnailPath.String,
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}

	if modTime, err := parseTimeString(modTimeRaw.String); err == nil {
		item.ModTime = modTime
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
