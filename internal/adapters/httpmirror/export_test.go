package httpmirror

import (
	"time"
)

// Exported internals for testing.
var (
	NewDownloaderWithClient = newDownloader
	UserAgent               = userAgent
)

// SetClock overrides the downloader's clock (used to drive the transfer
// rate watchdog without waiting).
func (d *Downloader) SetClock(now func() time.Time) {
	d.now = now
}
