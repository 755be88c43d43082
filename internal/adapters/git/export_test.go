package git

import (
	"context"
	"os/exec"
)

// NewManagerWithPolicy exports the policy-injecting constructor for tests.
var NewManagerWithPolicy = newManagerWithPolicy

// SetExecCommandContext replaces the exec factory for tests and returns a
// restore function.
func SetExecCommandContext(fn func(ctx context.Context, name string, args ...string) *exec.Cmd) (restore func()) {
	prev := execCommandContext
	execCommandContext = fn
	return func() { execCommandContext = prev }
}
