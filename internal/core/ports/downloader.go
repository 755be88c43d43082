package ports

import (
	"context"
	"io/fs"
)

// Downloader defines the interface for fetching files over HTTP.
//
//go:generate mockgen -source=downloader.go -destination=mocks/mock_downloader.go -package=mocks
type Downloader interface {
	// Fetch downloads the first reachable mirror into dest with the
	// given file mode, trying mirrors in order and moving on when one
	// fails. The write is atomic: dest either keeps its old content or
	// holds a complete new download.
	//
	// If dest already exists the fetch is skipped entirely.
	Fetch(ctx context.Context, mirrors []string, dest string, mode fs.FileMode) error
}
