package httpmirror

import (
	"io"
	"time"

	"github.com/dlang-tools/dci/internal/core/domain"
	"go.trai.ch/zerr"
)

// minRateReader aborts a transfer whose average rate since start stays
// below minRate once window has elapsed. Stalled mirrors fail fast instead
// of hanging the pipeline.
type minRateReader struct {
	r       io.Reader
	start   time.Time
	minRate int64 // bytes per second
	window  time.Duration
	now     func() time.Time

	read int64
}

func (r *minRateReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.read += int64(n)
	if err != nil {
		return n, err
	}

	elapsed := r.now().Sub(r.start)
	if elapsed < r.window {
		return n, nil
	}

	rate := int64(float64(r.read) / elapsed.Seconds())
	if rate < r.minRate {
		slowErr := zerr.With(domain.ErrTransferTooSlow, "bytes_per_sec", rate)
		return n, zerr.With(slowErr, "window", r.window.String())
	}

	return n, nil
}
