// Package telemetry bridges OpenTelemetry spans to pipeline stage renderers.
package telemetry

import (
	"bytes"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultSizeLimit is the default buffer size (4KB) if not specified.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the default flush interval (50ms) if not specified.
	DefaultTimeLimit = 50 * time.Millisecond
)

// BatchProcessor buffers writes and flushes them in line-oriented chunks.
// Compiler and make output is line structured, so a write that completes
// one or more lines is flushed through its last newline right away; the
// size and time limits only catch output that never terminates a line.
// It is thread-safe.
type BatchProcessor struct {
	// configuration
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	// synchronization
	mu     sync.Mutex
	buffer *bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor returns a new BatchProcessor.
// sizeLimit: max bytes a partial line may accumulate before a forced flush.
// timeLimit: max time a partial line may linger before a forced flush.
// onFlush: callback triggered when data is flushed.
// Call Close() to stop the background ticker.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		buffer:    new(bytes.Buffer),
		stopCh:    make(chan struct{}),
	}

	bp.ticker = time.NewTicker(timeLimit)
	go bp.run()

	return bp
}

// Write writes data to the buffer. Completed lines are flushed
// immediately; a partial line is flushed once it exceeds sizeLimit.
func (bp *BatchProcessor) Write(p []byte) (n int, err error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, zerr.New("batch processor is closed")
	}

	n, err = bp.buffer.Write(p)
	if err != nil {
		return n, err
	}

	flushed := false
	if i := bytes.LastIndexByte(bp.buffer.Bytes(), '\n'); i >= 0 {
		bp.flushPrefixLocked(i + 1)
		flushed = true
	}
	if bp.buffer.Len() >= bp.sizeLimit {
		bp.flushLocked()
		flushed = true
	}

	if flushed {
		// Reset ticker so we don't flush again immediately after a full buffer
		bp.ticker.Reset(bp.timeLimit)
	}

	return n, nil
}

// Flush forces any buffered data to be sent to the callback.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked()
}

// Close stops the background flusher and performs a final flush.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}

	bp.closed = true
	close(bp.stopCh)
	bp.flushLocked()
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// flushLocked must be called with mu held.
func (bp *BatchProcessor) flushLocked() {
	bp.flushPrefixLocked(bp.buffer.Len())
}

// flushPrefixLocked flushes the first n buffered bytes, keeping the rest.
// Must be called with mu held.
func (bp *BatchProcessor) flushPrefixLocked(n int) {
	if n == 0 {
		return
	}

	// Copy the data so the buffer can advance immediately.
	data := make([]byte, n)
	copy(data, bp.buffer.Next(n))

	// The callback runs under the lock to preserve chunk order.
	// It must be fast (e.g. sending to a channel).
	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}
