package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic,
// so the same span stream can drive different log layouts.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and
	// flush any buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	// For synchronous renderers, this may return immediately.
	Wait() error

	// OnStageStart is called when a pipeline stage begins execution.
	// spanID: unique identifier for this stage execution
	// parentID: spanID of the enclosing stage (empty if root)
	// name: human-readable stage name
	// startTime: when the stage started
	OnStageStart(spanID, parentID, name string, startTime time.Time)

	// OnStageLog is called when a stage emits output.
	// spanID: identifier for the stage
	// data: raw log bytes (may contain partial lines or ANSI sequences)
	OnStageLog(spanID string, data []byte)

	// OnStageComplete is called when a stage finishes execution.
	// spanID: identifier for the stage
	// endTime: when the stage completed
	// err: nil if successful, error otherwise
	OnStageComplete(spanID string, endTime time.Time, err error)
}
