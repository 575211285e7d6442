package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PathIndex returns the scanner's view of every non-missing catalog path.
func (s *Store) PathIndex(ctx context.Context) (map[string]PathInfo, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT path, id, status, size_bytes, mod_time, content_hash FROM media_items WHERE status != ?`,
		StatusMissing,
	)
	if err != nil {
		return nil, fmt.Errorf("path index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]PathInfo)
	for rows.Next() {
		var (
			path       string
			info       PathInfo
			modTimeRaw string
			hash       string
		)
		if err := rows.Scan(&path, &info.ID, (*string)(&info.Status), &info.SizeBytes, &modTimeRaw, &hash); err != nil {
			return nil, fmt.Errorf("scan path index: %w", err)
		}
		info.ContentHash = hash
		if modTime, err := parseTimeString(modTimeRaw); err == nil {
			info.ModTime = modTime
		}
		index[path] = info
	}
	return index, rows.Err()
}

// RequeueChanged resets an item whose file content changed on disk. Stored
// metadata, tags, and the embedding are cleared so the pipeline rebuilds them.
func (s *Store) RequeueChanged(ctx context.Context, id int64, hash string, size int64, modTime time.Time) error {
	timestamp := formatTime(time.Now())
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_items
         SET status = ?, content_hash = ?, size_bytes = ?, mod_time = ?,
             media_info_json = NULL, description = NULL, tags_json = NULL,
             embedding = NULL, embedding_model = NULL, error_message = NULL,
             progress_stage = NULL, progress_percent = 0, progress_message = NULL,
             last_heartbeat = NULL, needs_review = 0, review_reason = NULL,
             thumbnail_path = NULL, updated_at = ?
         WHERE id = ?`,
		StatusPending,
		hash,
		size,
		formatTime(modTime),
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("requeue changed item: %w", err)
	}
	return nil
}

// Rediscover returns a missing item to the pipeline after its file reappeared.
func (s *Store) Rediscover(ctx context.Context, id int64, hash string, size int64, modTime time.Time) error {
	return s.RequeueChanged(ctx, id, hash, size, modTime)
}

// MarkMissing flags the given paths as no longer present on disk.
func (s *Store) MarkMissing(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	timestamp := formatTime(time.Now())
	var total int64
	for _, path := range paths {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_items SET status = ?, last_heartbeat = NULL, updated_at = ? WHERE path = ? AND status != ?`,
			StatusMissing,
			timestamp,
			path,
			StatusMissing,
		)
		if err != nil {
			return total, fmt.Errorf("mark missing %q: %w", path, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			total += affected
		}
	}
	return total, nil
}

// Remove deletes a catalog item.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RemoveMissing deletes all items flagged missing and returns the count.
func (s *Store) RemoveMissing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_items WHERE status = ?`, StatusMissing)
	if err != nil {
		return 0, fmt.Errorf("remove missing items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed resets failed items (optionally a subset) back to pending.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := formatTime(time.Now())
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_items
             SET status = ?, error_message = NULL, progress_stage = NULL,
                 progress_percent = 0, progress_message = NULL, updated_at = ?
             WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, timestamp, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE media_items
         SET status = ?, error_message = NULL, progress_stage = NULL,
             progress_percent = 0, progress_message = NULL, updated_at = ?
         WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}

// TagCounts returns the number of indexed items carrying each tag.
func (s *Store) TagCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT tags_json FROM media_items WHERE tags_json IS NOT NULL AND tags_json != ''`,
	)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, tag := range tags {
			counts[tag]++
		}
	}
	return counts, rows.Err()
}

// ItemsByTag returns items whose tag list contains the given tag.
func (s *Store) ItemsByTag(ctx context.Context, tag string) ([]*Item, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil, nil
	}
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*Item
	for _, item := range items {
		for _, candidate := range item.Tags() {
			if candidate == tag {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched, nil
}
