// Package httpmirror implements the Downloader port against ordered mirror lists.
package httpmirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dlang-tools/dci/internal/build"
	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/dlang-tools/dci/internal/retry"
	"go.trai.ch/zerr"
)

const (
	// connectTimeout bounds connection establishment per mirror.
	connectTimeout = 5 * time.Second

	// minTransferRate is the slowest acceptable average download speed in
	// bytes per second, measured over rateWindow.
	minTransferRate = 1024
	rateWindow      = 30 * time.Second
)

// Downloader fetches artifacts over HTTP from an ordered mirror list.
// Every retry attempt walks the whole list; the first mirror that delivers
// a complete artifact wins.
type Downloader struct {
	client *http.Client
	logger ports.Logger
	policy retry.Policy
	now    func() time.Time
}

// NewDownloader creates a Downloader with the production transfer bounds.
func NewDownloader(logger ports.Logger) *Downloader {
	return newDownloader(logger, newHTTPClient(), retry.Default())
}

// newDownloader creates a Downloader with a custom client and retry policy
// (used for testing).
func newDownloader(logger ports.Logger, client *http.Client, policy retry.Policy) *Downloader {
	return &Downloader{
		client: client,
		logger: logger,
		policy: policy,
		now:    time.Now,
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		},
	}
}

// Fetch downloads the artifact into dest, trying mirrors in order on every
// retry attempt. An existing dest short-circuits without touching the
// network, which keeps interrupted pipelines resumable.
func (d *Downloader) Fetch(ctx context.Context, mirrors []string, dest string, mode fs.FileMode) error {
	if _, err := os.Stat(dest); err == nil {
		d.logger.Info(fmt.Sprintf("%s already present, skipping download", dest))
		return nil
	}

	if len(mirrors) == 0 {
		return zerr.With(domain.ErrAllMirrorsFailed, "dest", dest)
	}

	return d.policy.Do(ctx, "download "+filepath.Base(dest), func(ctx context.Context) error {
		return d.fetchAny(ctx, mirrors, dest, mode)
	})
}

// fetchAny walks the mirror list once and returns nil as soon as one
// delivers.
func (d *Downloader) fetchAny(ctx context.Context, mirrors []string, dest string, mode fs.FileMode) error {
	errs := make([]error, 0, len(mirrors)+1)
	errs = append(errs, domain.ErrAllMirrorsFailed)

	for _, mirror := range mirrors {
		err := d.fetchOne(ctx, mirror, dest, mode)
		if err == nil {
			return nil
		}
		d.logger.Warn(fmt.Sprintf("mirror %s failed: %v", mirror, err))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (d *Downloader) fetchOne(ctx context.Context, mirror, dest string, mode fs.FileMode) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mirror, http.NoBody)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDownloadFailed.Error())
	}
	req.Header.Set("User-Agent", userAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDownloadFailed.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.With(domain.ErrDownloadFailed, "status_code", resp.StatusCode)
		return zerr.With(statusErr, "mirror", mirror)
	}

	body := &minRateReader{
		r:       resp.Body,
		start:   d.now(),
		minRate: minTransferRate,
		window:  rateWindow,
		now:     d.now,
	}

	digest, err := d.atomicDownload(dest, body, mode)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDownloadFailed.Error()), "mirror", mirror)
	}

	d.logger.Info(fmt.Sprintf("downloaded %s (xxh64 %016x)", dest, digest))
	return nil
}

// atomicDownload streams body into a temp file next to dest and renames it
// into place, so dest never holds a partial artifact. The xxhash digest of
// the written bytes is returned for logging.
func (d *Downloader) atomicDownload(dest string, body io.Reader, mode fs.FileMode) (uint64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return 0, err
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(dest)+"-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	digest := xxhash.New()
	if _, err := io.Copy(tmpFile, io.TeeReader(body, digest)); err != nil {
		_ = tmpFile.Close()
		return 0, err
	}

	if err := tmpFile.Close(); err != nil {
		return 0, err
	}

	if err := os.Chmod(tmpName, mode); err != nil {
		return 0, err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return 0, err
	}

	return digest.Sum64(), nil
}

// userAgent identifies the tool and host platform on download requests.
func userAgent() string {
	return fmt.Sprintf("dci/%s (%s/%s)", build.Version, runtime.GOOS, runtime.GOARCH)
}
