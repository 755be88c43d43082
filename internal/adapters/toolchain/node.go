package toolchain

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/adapters/config"
	"github.com/dlang-tools/dci/internal/adapters/httpmirror"
	"github.com/dlang-tools/dci/internal/adapters/logger"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// NodeID is the unique identifier for the toolchain installer Graft node.
const NodeID graft.ID = "adapter.toolchain"

func init() {
	graft.Register(graft.Node[ports.Toolchain]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, httpmirror.NodeID, config.NodeID},
		Run: func(ctx context.Context) (ports.Toolchain, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			downloader, err := graft.Dep[ports.Downloader](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return nil, zerr.Wrap(err, "failed to resolve working directory")
			}
			settings, err := loader.Settings(cwd)
			if err != nil {
				return nil, err
			}

			sources := Sources{
				InstallScriptMirrors: settings.InstallScriptMirrors,
				GDMDScriptURL:        settings.GDMDScriptURL,
			}
			return NewInstaller(settings.Layout, downloader, log, sources), nil
		},
	})
}
