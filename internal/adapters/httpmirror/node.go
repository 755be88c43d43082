package httpmirror

import (
	"context"

	"github.com/dlang-tools/dci/internal/adapters/logger"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the downloader Graft node.
const NodeID graft.ID = "adapter.downloader"

func init() {
	graft.Register(graft.Node[ports.Downloader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Downloader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewDownloader(log), nil
		},
	})
}
