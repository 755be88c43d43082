package httpmirror

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinRateReader_WithinWindow(t *testing.T) {
	start := time.Now()
	r := &minRateReader{
		r:       strings.NewReader(strings.Repeat("a", 16)),
		start:   start,
		minRate: 1024,
		window:  30 * time.Second,
		now:     func() time.Time { return start.Add(5 * time.Second) },
	}

	// 16 bytes in 5 seconds is glacial, but the window has not elapsed yet.
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	assert.Equal(t, 16, n)
	require.NoError(t, err)
}

func TestMinRateReader_SlowTransferFails(t *testing.T) {
	start := time.Now()
	r := &minRateReader{
		r:       strings.NewReader(strings.Repeat("a", 512)),
		start:   start,
		minRate: 1024,
		window:  30 * time.Second,
		now:     func() time.Time { return start.Add(31 * time.Second) },
	}

	// 512 bytes over 31 seconds is below 1 KiB/s.
	buf := make([]byte, 512)
	n, err := r.Read(buf)
	assert.Equal(t, 512, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTransferTooSlow.Error())
}

func TestMinRateReader_FastTransferPasses(t *testing.T) {
	start := time.Now()
	r := &minRateReader{
		r:       strings.NewReader(strings.Repeat("a", 64*1024)),
		start:   start,
		minRate: 1024,
		window:  30 * time.Second,
		now:     func() time.Time { return start.Add(31 * time.Second) },
	}

	// 64 KiB over 31 seconds is comfortably above 1 KiB/s.
	buf := make([]byte, 64*1024)
	n, err := r.Read(buf)
	assert.Equal(t, 64*1024, n)
	require.NoError(t, err)
}

func TestMinRateReader_PassesThroughEOF(t *testing.T) {
	start := time.Now()
	r := &minRateReader{
		r:       strings.NewReader(""),
		start:   start,
		minRate: 1024,
		window:  30 * time.Second,
		now:     func() time.Time { return start.Add(31 * time.Second) },
	}

	buf := make([]byte, 16)
	_, err := r.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
