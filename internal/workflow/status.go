package workflow

import (
	"context"

	"medley/internal/library"
	"medley/internal/stage"
)

// Status is a point-in-time snapshot of the workflow for the status API.
type Status struct {
	Running   bool
	Summary   library.HealthSummary
	Stages    []stage.Health
	LastError string
}

// Status reports the manager state, catalog counts, and per-stage health.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	summary, err := m.store.Health(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		Running: m.Running(),
		Summary: summary,
		Stages:  m.HealthChecks(ctx),
	}
	if err := m.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status, nil
}

// HealthChecks runs every registered stage's health check in registration order.
func (m *Manager) HealthChecks(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := make([]pipelineStage, len(m.stages))
	copy(stages, m.stages)
	m.mu.RUnlock()

	healths := make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			healths = append(healths, stage.Unhealthy(stg.name, "handler not configured"))
			continue
		}
		healths = append(healths, stg.handler.HealthCheck(ctx))
	}
	return healths
}
