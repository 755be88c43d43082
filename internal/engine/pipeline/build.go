package pipeline

import (
	"context"

	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// Build compiles the compiler, runtime and standard library in
// dependency order under an activated host toolchain. The runtime and
// standard library pick up the freshly built compiler through their
// sibling-path makefile defaults.
func (p *Pipeline) Build(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "build")
	defer span.End()

	activation, err := p.toolchain.Activate(ctx, p.cfg.HostCompiler)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() { _ = activation.Close() }()

	for _, target := range domain.BuildTargets() {
		if err := p.buildTarget(ctx, target, activation); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) buildTarget(ctx context.Context, target domain.BuildTarget, activation ports.Activation) error {
	ctx, span := p.tracer.Start(ctx, "build-"+target.Name)
	defer span.End()

	dir := p.settings.Layout.SrcDir()
	vars := target.MakeVars
	if target.Name == domain.TargetCompiler {
		// Only the compiler is built by the host toolchain directly.
		vars = append(vars, "HOST_DMD="+activation.Compiler())
	} else {
		dir = p.settings.RepoDir(target.Name)
	}

	cmd := p.makeCommand(dir, posixMakefile, vars...)
	cmd.Env = activation.Env()

	if err := p.runner.Run(ctx, cmd, span, span); err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrBuildFailed.Error()), "target", target.Name)
		span.RecordError(err)
		return err
	}
	return nil
}
