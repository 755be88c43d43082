package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/dlang-tools/dci/internal/core/domain"
)

// InstallHost installs the given host compiler, which need not be the
// configured one.
func (p *Pipeline) InstallHost(ctx context.Context, spec domain.CompilerSpec) error {
	ctx, span := p.tracer.Start(ctx, "install-host")
	defer span.End()
	span.SetAttribute("compiler", spec.ID)

	if err := p.toolchain.Install(ctx, spec); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// SetupRepos checks out the sibling dependency repositories on the
// requested branch. A dependency whose checkout directory already
// exists is skipped without touching the network.
func (p *Pipeline) SetupRepos(ctx context.Context, branch string) error {
	ctx, span := p.tracer.Start(ctx, "setup-repos")
	defer span.End()
	span.SetAttribute("branch", branch)

	for _, repo := range p.settings.Repositories {
		if err := p.setupRepo(ctx, repo, branch); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) setupRepo(ctx context.Context, repo domain.RepositoryDependency, branch string) error {
	dir := p.settings.RepoDir(repo.Name)
	if _, err := os.Stat(dir); err == nil {
		p.logger.Info(fmt.Sprintf("%s already checked out at %s, skipping", repo.Name, dir))
		return nil
	}

	ctx, span := p.tracer.Start(ctx, "clone-"+repo.Name)
	defer span.End()

	// Feature branches of the compiler checkout need not exist on the
	// dependencies; probe first and fall back to the default branch.
	target := branch
	if !domain.IsWellKnownBranch(branch) {
		exists, err := p.repos.RemoteBranchExists(ctx, repo.RemoteURL, branch)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !exists {
			p.logger.Warn(fmt.Sprintf("branch %q does not exist on %s, falling back to %s",
				branch, repo.RemoteURL, domain.DefaultBranch))
			target = domain.DefaultBranch
		}
	}

	if err := p.repos.Clone(ctx, repo, target, dir); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
