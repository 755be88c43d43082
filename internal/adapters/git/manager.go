// Package git manages the sibling dependency checkouts by shelling out to
// the git CLI.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/dlang-tools/dci/internal/retry"
	"go.trai.ch/zerr"
)

// lsRemoteNoMatch is the git ls-remote --exit-code status for "no matching refs".
const lsRemoteNoMatch = 2

// execCommandContext is swapped out in tests.
var execCommandContext = exec.CommandContext

// Manager implements ports.RepoManager using the git CLI.
type Manager struct {
	logger ports.Logger
	policy retry.Policy
}

// NewManager creates a Manager with the default retry policy.
func NewManager(logger ports.Logger) *Manager {
	return newManagerWithPolicy(logger, retry.Default())
}

// newManagerWithPolicy creates a Manager with a custom retry policy (used
// for testing).
func newManagerWithPolicy(logger ports.Logger, policy retry.Policy) *Manager {
	return &Manager{logger: logger, policy: policy}
}

// CurrentBranch reports the branch the checkout at dir is on.
func (m *Manager) CurrentBranch(ctx context.Context, dir string) (string, error) {
	cmd := execCommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read current branch"), "dir", dir)
	}

	return strings.TrimSpace(string(output)), nil
}

// RemoteBranchExists probes the remote for the branch. A missing branch is
// not an error; only a failed probe (unreachable remote, bad URL) is.
func (m *Manager) RemoteBranchExists(ctx context.Context, remoteURL, branch string) (bool, error) {
	cmd := execCommandContext(ctx, "git", "ls-remote", "--exit-code", "--heads", remoteURL, branch)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == lsRemoteNoMatch {
			return false, nil
		}

		probeErr := zerr.Wrap(err, domain.ErrBranchProbeFailed.Error())
		probeErr = zerr.With(probeErr, "remote", remoteURL)
		return false, zerr.With(probeErr, "branch", branch)
	}

	return true, nil
}

// Clone creates a shallow single-branch clone of repo at dir, retrying on
// failure. An existing dir short-circuits without touching the network.
func (m *Manager) Clone(ctx context.Context, repo domain.RepositoryDependency, branch, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		m.logger.Info(fmt.Sprintf("%s already present, skipping clone", dir))
		return nil
	}

	err := m.policy.Do(ctx, "clone "+repo.Name, func(ctx context.Context) error {
		// A partial clone from an earlier attempt must not poison this one.
		if err := os.RemoveAll(dir); err != nil {
			return zerr.Wrap(err, "failed to clear clone directory")
		}

		cmd := execCommandContext(ctx, "git", "clone",
			"--depth", "1",
			"--branch", branch,
			"--single-branch",
			repo.RemoteURL, dir)

		output, err := cmd.CombinedOutput()
		if err != nil {
			cloneErr := zerr.Wrap(err, domain.ErrCloneFailed.Error())
			cloneErr = zerr.With(cloneErr, "repository", repo.Name)
			cloneErr = zerr.With(cloneErr, "branch", branch)
			return zerr.With(cloneErr, "output", strings.TrimSpace(string(output)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info(fmt.Sprintf("cloned %s (branch %s)", repo.Name, branch))
	return nil
}
