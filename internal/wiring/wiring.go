// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/dlang-tools/dci/internal/adapters/config"
	_ "github.com/dlang-tools/dci/internal/adapters/git"
	_ "github.com/dlang-tools/dci/internal/adapters/httpmirror"
	_ "github.com/dlang-tools/dci/internal/adapters/logger"
	_ "github.com/dlang-tools/dci/internal/adapters/shell"
	_ "github.com/dlang-tools/dci/internal/adapters/toolchain"
	// Register app nodes.
	_ "github.com/dlang-tools/dci/internal/app"
)
