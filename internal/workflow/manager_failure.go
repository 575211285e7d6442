package workflow

import (
	"context"
	"errors"
	"strings"

	"medley/internal/library"
	"medley/internal/logging"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *library.Item, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = stageName + " failed without error detail"
	}
	item.SetFailed(message)
	if library.NeedsReview(stageErr) {
		item.NeedsReview = true
		item.ReviewReason = message
	}

	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("error_message", message),
		logging.Bool("needs_review", item.NeedsReview),
		logging.String(logging.FieldEventType, "stage_failure"))

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.mu.Lock()
	m.batchFailed++
	m.mu.Unlock()

	m.setLastItem(item)
	if err := m.notifier.NotifyError(ctx, stageErr, stageName); err != nil {
		logger.Debug("error notification failed", logging.Error(err))
	}
}
