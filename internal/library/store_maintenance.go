package library

import (
	"context"
	"fmt"
	"time"
)

// UpdateHeartbeat refreshes the heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	timestamp := formatTime(time.Now())
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_items SET last_heartbeat = ? WHERE id = ?`,
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing rolls in-flight items back to the stage they entered
// from. Runs on daemon startup so items interrupted by the previous shutdown
// resume instead of sitting in a processing status forever.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	timestamp := formatTime(time.Now())
	var total int64
	for _, transition := range processingRollbackTransitions() {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_items
             SET status = ?, last_heartbeat = NULL, progress_stage = NULL,
                 progress_percent = 0, progress_message = NULL, updated_at = ?
             WHERE status = ?`,
			transition.to,
			timestamp,
			transition.from,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck %s: %w", transition.from, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			total += affected
		}
	}
	return total, nil
}

// ReclaimStaleProcessing rolls back items whose heartbeat predates the cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	timestamp := formatTime(time.Now())
	cutoffStr := formatTime(cutoff)
	var total int64
	for _, transition := range processingRollbackTransitions() {
		if !containsStatus(statuses, transition.from) {
			continue
		}
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE media_items
             SET status = ?, last_heartbeat = NULL, progress_stage = NULL,
                 progress_percent = 0, progress_message = NULL, updated_at = ?
             WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
			transition.to,
			timestamp,
			transition.from,
			cutoffStr,
		)
		if err != nil {
			return total, fmt.Errorf("reclaim stale %s: %w", transition.from, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			total += affected
		}
	}
	return total, nil
}

func containsStatus(statuses []Status, status Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
