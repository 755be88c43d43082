package toolchain

import (
	"context"
	"os/exec"
)

// NewInstallerWithPolicy exposes the retry-policy constructor for tests.
var NewInstallerWithPolicy = newInstallerWithPolicy

// SetExecCommandContext replaces the command factory and returns a
// restore function.
func SetExecCommandContext(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) (restore func()) {
	prev := execCommandContext
	execCommandContext = fn
	return func() { execCommandContext = prev }
}
