package git

import (
	"context"

	"github.com/dlang-tools/dci/internal/adapters/logger"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the repo manager Graft node.
const NodeID graft.ID = "adapter.repos"

func init() {
	graft.Register(graft.Node[ports.RepoManager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.RepoManager, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewManager(log), nil
		},
	})
}
