package httpmirror_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dlang-tools/dci/internal/adapters/httpmirror"
	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports/mocks"
	"github.com/dlang-tools/dci/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// MockRoundTripper is a helper to mock http.Client behavior.
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &MockRoundTripper{RoundTripFunc: handler},
	}
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func errResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString("")),
		Header:     make(http.Header),
	}
}

// noSleep keeps retry backoff out of test runtime.
func noSleep(_ context.Context, _ time.Duration) error { return nil }

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, BaseDelay: time.Second, Sleep: noSleep}
}

func newTestLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return mocks.NewMockLogger(ctrl)
}

func TestDownloader_Fetch_FirstMirrorWins(t *testing.T) {
	var requested []string
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requested = append(requested, req.URL.String())
		return okResponse("#!/bin/sh\necho ok\n"), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))
	dest := filepath.Join(t.TempDir(), "install.sh")

	mirrors := []string{"https://dlang.org/install.sh", "https://downloads.dlang.org/other/install.sh"}
	err := d.Fetch(t.Context(), mirrors, dest, 0o755)
	require.NoError(t, err)

	// Only the first mirror should have been contacted.
	assert.Equal(t, []string{"https://dlang.org/install.sh"}, requested)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho ok\n", string(data))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestDownloader_Fetch_FallsBackToSecondMirror(t *testing.T) {
	var requested []string
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		requested = append(requested, req.URL.String())
		if req.URL.Host == "dlang.org" {
			return errResponse(http.StatusInternalServerError), nil
		}
		return okResponse("from-fallback\n"), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Warn(gomock.Any()).Times(1)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))
	dest := filepath.Join(t.TempDir(), "install.sh")

	mirrors := []string{
		"https://dlang.org/install.sh",
		"https://downloads.dlang.org/other/install.sh",
		"https://nightlies.dlang.org/install.sh",
	}
	err := d.Fetch(t.Context(), mirrors, dest, 0o755)
	require.NoError(t, err)

	// The winning second mirror ends the walk; the third is never tried.
	require.Len(t, requested, 2)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "from-fallback\n", string(data))
}

func TestDownloader_Fetch_AllMirrorsExhausted(t *testing.T) {
	var calls int
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		calls++
		return errResponse(http.StatusBadGateway), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(2))
	dest := filepath.Join(t.TempDir(), "install.sh")

	mirrors := []string{"https://dlang.org/install.sh", "https://downloads.dlang.org/other/install.sh"}
	err := d.Fetch(t.Context(), mirrors, dest, 0o755)
	require.Error(t, err)

	// Use string checks for robustness if ErrorIs fails with zerr wrapping.
	assert.Contains(t, err.Error(), domain.ErrRetriesExhausted.Error())
	assert.Contains(t, err.Error(), domain.ErrAllMirrorsFailed.Error())

	// Every mirror tried on every attempt.
	assert.Equal(t, 4, calls)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloader_Fetch_ConnectionError(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	logger := newTestLogger(t)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(1))
	dest := filepath.Join(t.TempDir(), "install.sh")

	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o755)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrDownloadFailed.Error())
}

func TestDownloader_Fetch_SkipsExistingTarget(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		panic("HTTP client should not be called when the target exists")
	})

	logger := newTestLogger(t)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))

	dest := filepath.Join(t.TempDir(), "install.sh")
	require.NoError(t, os.WriteFile(dest, []byte("already here"), 0o755))

	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o755)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "already here", string(data))
}

func TestDownloader_Fetch_NoMirrors(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		panic("HTTP client should not be called without mirrors")
	})

	logger := newTestLogger(t)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))
	dest := filepath.Join(t.TempDir(), "install.sh")

	err := d.Fetch(t.Context(), nil, dest, 0o755)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrAllMirrorsFailed.Error())
}

type brokenReader struct{}

func (brokenReader) Read(_ []byte) (int, error) {
	return 0, errors.New("connection reset mid-stream")
}

func TestDownloader_Fetch_NoPartialFileOnStreamError(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(brokenReader{}),
			Header:     make(http.Header),
		}, nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(1))

	dir := t.TempDir()
	dest := filepath.Join(dir, "install.sh")

	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o755)
	require.Error(t, err)

	// Neither the target nor any temp file may survive a failed transfer.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloader_Fetch_CreatesParentDirectories(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		return okResponse("nested"), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))
	dest := filepath.Join(t.TempDir(), "dlang", "scripts", "install.sh")

	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o644)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "nested", string(data))
}

func TestDownloader_Fetch_AbortsSlowTransfer(t *testing.T) {
	client := newMockClient(func(_ *http.Request) (*http.Response, error) {
		return okResponse("tiny trickle of bytes"), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(1))

	// Every clock reading jumps 31s, so the first read already sits past
	// the rate window with only a handful of bytes transferred.
	base := time.Now()
	var ticks int
	d.SetClock(func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 31 * time.Second)
	})

	dest := filepath.Join(t.TempDir(), "install.sh")
	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o755)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTransferTooSlow.Error())

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloader_Fetch_SetsUserAgent(t *testing.T) {
	var agent string
	client := newMockClient(func(req *http.Request) (*http.Response, error) {
		agent = req.Header.Get("User-Agent")
		return okResponse("ok"), nil
	})

	logger := newTestLogger(t)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	d := httpmirror.NewDownloaderWithClient(logger, client, testPolicy(5))
	dest := filepath.Join(t.TempDir(), "install.sh")

	err := d.Fetch(t.Context(), []string{"https://dlang.org/install.sh"}, dest, 0o755)
	require.NoError(t, err)

	assert.Equal(t, httpmirror.UserAgent(), agent)
	assert.Contains(t, agent, "dci/")
	assert.Contains(t, agent, runtime.GOOS)
}
