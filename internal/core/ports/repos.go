package ports

import (
	"context"

	"github.com/dlang-tools/dci/internal/core/domain"
)

// RepoManager defines the interface for managing sibling git checkouts.
//
//go:generate mockgen -source=repos.go -destination=mocks/mock_repos.go -package=mocks
type RepoManager interface {
	// CurrentBranch reports the branch the checkout at dir is on.
	CurrentBranch(ctx context.Context, dir string) (string, error)

	// RemoteBranchExists probes whether the branch exists on the remote.
	RemoteBranchExists(ctx context.Context, remoteURL, branch string) (bool, error)

	// Clone creates a shallow single-branch clone of the repository at
	// the given directory. An existing directory is left untouched.
	Clone(ctx context.Context, repo domain.RepositoryDependency, branch, dir string) error
}
