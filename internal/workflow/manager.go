package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/notifications"
	"medley/internal/stage"
)

// Manager coordinates catalog processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *library.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	stages      []pipelineStage
	stageByStat map[library.Status]pipelineStage
	statusOrder []library.Status
	processing  []library.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *library.Item

	batchActive bool
	batchStart  time.Time
	batchDone   int
	batchFailed int
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      library.Status
	processingStatus library.Status
	doneStatus       library.Status
}

// NewManager constructs a workflow manager without any stages registered.
func NewManager(cfg *config.Config, store *library.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		notifier:     notifier,
		pollInterval: pollInterval,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		stageByStat: make(map[library.Status]pipelineStage),
	}
}

// Register wires a stage handler into the pipeline. Items whose status equals
// startStatus are picked up, moved to processingStatus while the handler runs,
// and land on doneStatus when it succeeds. Registration order defines pickup
// priority.
func (m *Manager) Register(name string, handler stage.Handler, startStatus, processingStatus, doneStatus library.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stg := pipelineStage{
		name:             name,
		handler:          handler,
		startStatus:      startStatus,
		processingStatus: processingStatus,
		doneStatus:       doneStatus,
	}
	m.stages = append(m.stages, stg)
	m.stageByStat[startStatus] = stg
	m.statusOrder = append(m.statusOrder, startStatus)
	if processingStatus != "" && !containsStatus(m.processing, processingStatus) {
		m.processing = append(m.processing, processingStatus)
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the manager loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleItems(ctx, m.logger, m.processingStatuses()); err != nil {
			m.logger.Warn("reclaim stale processing failed; stuck items may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check catalog database access"))
		}

		item, err := m.store.NextForStatuses(ctx, m.statusOrderCopy()...)
		if err != nil {
			m.handleNextItemError(ctx, err)
			continue
		}
		if item == nil {
			m.finishBatch(ctx)
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) handleNextItemError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to fetch next catalog item",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check catalog database access"))
	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = m.pollInterval
	}
	select {
	case <-ctx.Done():
	case <-time.After(retry):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) statusOrderCopy() []library.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make([]library.Status, len(m.statusOrder))
	copy(cp, m.statusOrder)
	return cp
}

func (m *Manager) processingStatuses() []library.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make([]library.Status, len(m.processing))
	copy(cp, m.processing)
	return cp
}

func (m *Manager) stageForStatus(status library.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStat[status]
	return stg, ok
}

func (m *Manager) processItem(ctx context.Context, item *library.Item) error {
	stg, ok := m.stageForStatus(item.Status)
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.waitForItemOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := logging.WithRequestID(logging.WithStage(logging.WithItemID(ctx, item.ID), stg.name), requestID)
	stageLogger := logging.WithContext(stageCtx, m.logger).With(logging.String(logging.FieldPath, item.Path))

	if err := m.transitionToProcessing(stageCtx, stg, item); err != nil {
		stageLogger.Error("failed to transition item to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *library.Item) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)))

	handler := stg.handler
	if handler == nil {
		item.SetFailed(fmt.Sprintf("stage %s missing handler", stg.name))
		if err := m.store.Update(ctx, item); err != nil {
			stageLogger.Error("failed to persist missing handler failure", logging.Error(err))
		}
		err := errors.New("stage handler unavailable")
		m.setLastError(err)
		return err
	}

	if err := handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stg.name, item, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, handler, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, item, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if item.Status == stg.processingStatus || item.Status == "" {
		item.Status = stg.doneStatus
	}
	item.LastHeartbeat = nil
	if item.Status == library.StatusIndexed {
		item.SetProgressComplete("Indexed", "Indexing complete")
		m.mu.Lock()
		m.batchDone++
		m.mu.Unlock()
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)))
	m.setLastItem(item)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *library.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	execErr := handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, item *library.Item) error {
	if stg.processingStatus == "" {
		return errors.New("processing status must not be empty")
	}

	now := time.Now().UTC()
	item.Status = stg.processingStatus
	item.SetProgress(stg.name, fmt.Sprintf("%s started", stg.name), 0)
	item.ErrorMessage = ""
	item.LastHeartbeat = &now

	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastItem(item)
	m.noteBatchStarted()
	return nil
}

func (m *Manager) noteBatchStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.batchActive {
		m.batchActive = true
		m.batchStart = time.Now()
		m.batchDone = 0
		m.batchFailed = 0
	}
}

// finishBatch fires the indexing-complete notification once the pipeline
// drains after a burst of work.
func (m *Manager) finishBatch(ctx context.Context) {
	m.mu.Lock()
	if !m.batchActive {
		m.mu.Unlock()
		return
	}
	m.batchActive = false
	done := m.batchDone
	failed := m.batchFailed
	duration := time.Since(m.batchStart)
	m.mu.Unlock()

	if done == 0 && failed == 0 {
		return
	}
	if err := m.notifier.NotifyIndexingCompleted(ctx, done, failed, duration); err != nil {
		m.logger.Debug("indexing notification failed", logging.Error(err))
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *Manager) setLastItem(item *library.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item == nil {
		m.lastItem = nil
		return
	}
	cp := *item
	m.lastItem = &cp
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// LastItem returns a copy of the most recently touched item, if any.
func (m *Manager) LastItem() *library.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastItem == nil {
		return nil
	}
	cp := *m.lastItem
	return &cp
}

func containsStatus(statuses []library.Status, status library.Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
