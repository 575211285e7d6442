package stage

import (
	"context"

	"medley/internal/library"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *library.Item) error
	Execute(context.Context, *library.Item) error
	HealthCheck(context.Context) Health
}
