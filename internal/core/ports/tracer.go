package ports

import (
	"context"
	"io"
)

// Tracer is the abstraction for tracing pipeline stage execution.
// Implementations turn stage boundaries into spans so renderers can
// present them, and expose each span as a log sink for stage output.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start creates a new span for a stage. The returned context carries
	// the span so nested stages become child spans.
	Start(ctx context.Context, name string) (context.Context, Span)

	// Shutdown stops background log processing.
	Shutdown(ctx context.Context) error
}

// Span represents an in-flight stage. Bytes written to it are streamed
// as stage output.
type Span interface {
	io.Writer

	// End completes the span.
	End()

	// RecordError records an error and marks the span as failed.
	RecordError(err error)

	// SetAttribute attaches a key-value pair to the span.
	SetAttribute(key string, value any)
}
