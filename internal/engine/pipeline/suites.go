package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// Suite names accepted by Suite, matching the test_* command surface.
const (
	SuiteDmd        = domain.TargetCompiler
	SuiteDruntime   = domain.TargetRuntime
	SuitePhobos     = domain.TargetStdlib
	SuiteDubPackage = "dub_package"
)

// suiteOrder is the sequence the aggregate test stage runs.
var suiteOrder = []string{SuiteDubPackage, SuiteDruntime, SuitePhobos, SuiteDmd}

// Suite runs one named test suite.
func (p *Pipeline) Suite(ctx context.Context, name string) error {
	switch name {
	case SuiteDmd:
		return p.TestDmd(ctx)
	case SuiteDruntime:
		return p.TestDruntime(ctx)
	case SuitePhobos:
		return p.TestPhobos(ctx)
	case SuiteDubPackage:
		return p.TestDubPackage(ctx)
	default:
		return zerr.With(domain.ErrUnknownSuite, "suite", name)
	}
}

// Test runs all suites. Suites are independent, so a failure does not
// stop the remaining ones; the aggregate error reports every failure.
func (p *Pipeline) Test(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "test")
	defer span.End()

	var errs []error
	for _, name := range suiteOrder {
		if err := p.Suite(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// TestDruntime runs the runtime unit tests against the built compiler.
func (p *Pipeline) TestDruntime(ctx context.Context) error {
	return p.unittestSuite(ctx, domain.TargetRuntime)
}

// TestPhobos runs the standard library unit tests against the built
// compiler.
func (p *Pipeline) TestPhobos(ctx context.Context) error {
	return p.unittestSuite(ctx, domain.TargetStdlib)
}

// unittestSuite runs make unittest in a sibling checkout. The makefiles
// locate the freshly built compiler through their sibling-path defaults,
// so no toolchain activation is needed.
func (p *Pipeline) unittestSuite(ctx context.Context, name string) error {
	ctx, span := p.tracer.Start(ctx, "test-"+name)
	defer span.End()

	cmd := p.makeCommand(p.settings.RepoDir(name), posixMakefile, "unittest")
	if err := p.runner.Run(ctx, cmd, span, span); err != nil {
		suiteErr := zerr.With(zerr.Wrap(err, domain.ErrSuiteFailed.Error()), "suite", name)
		span.RecordError(suiteErr)
		return suiteErr
	}
	return nil
}

// TestDmd runs the compiler's own test corpus. Full builds on the
// primary platform exercise every historical argument permutation;
// every other run uses the fixed reduced set.
func (p *Pipeline) TestDmd(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "test-"+SuiteDmd)
	defer span.End()

	activation, err := p.toolchain.Activate(ctx, p.cfg.HostCompiler)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() { _ = activation.Close() }()

	var vars []string
	tier := "full"
	if !p.cfg.FullBuild || p.cfg.OSName != domain.PlatformLinux {
		tier = "reduced"
		vars = append(vars, "ARGS="+domain.ReducedTestFlags)
	}
	span.SetAttribute("tier", tier)

	cmd := p.makeCommand(p.settings.Layout.TestDir(), "", vars...)
	cmd.Env = activation.Env()
	if err := p.runner.Run(ctx, cmd, span, span); err != nil {
		suiteErr := zerr.With(zerr.Wrap(err, domain.ErrSuiteFailed.Error()), "suite", SuiteDmd)
		span.RecordError(suiteErr)
		return suiteErr
	}
	return nil
}

// TestDubPackage builds every dub example package twice, once with the
// activated host toolchain and once with the freshly built compiler,
// then smoke-parses the build driver with the fresh compiler.
func (p *Pipeline) TestDubPackage(ctx context.Context) error {
	if p.cfg.HostCompiler.IsGDC() {
		// dub cannot drive the gdmd wrapper, a known limitation of the
		// fixed-version GDC variant.
		p.logger.Warn("skipping " + SuiteDubPackage + " suite for host compiler " + p.cfg.HostCompiler.ID)
		return nil
	}

	ctx, span := p.tracer.Start(ctx, "test-"+SuiteDubPackage)
	defer span.End()

	activation, err := p.toolchain.Activate(ctx, p.cfg.HostCompiler)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() { _ = activation.Close() }()

	dubDir := p.settings.Layout.DubPackagesDir()
	entries, err := os.ReadDir(dubDir)
	if err != nil {
		readErr := zerr.With(zerr.Wrap(err, domain.ErrSuiteFailed.Error()), "suite", SuiteDubPackage)
		span.RecordError(readErr)
		return readErr
	}

	fresh := p.settings.Layout.CompilerPath(p.cfg.OSName, p.cfg.Model)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallelism)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".d" {
			continue
		}
		g.Go(func() error {
			return p.buildDubPackage(gctx, entry.Name(), dubDir, fresh, activation)
		})
	}
	if err := g.Wait(); err != nil {
		suiteErr := zerr.With(zerr.Wrap(err, domain.ErrSuiteFailed.Error()), "suite", SuiteDubPackage)
		span.RecordError(suiteErr)
		return suiteErr
	}

	// The fresh compiler parses the build driver without code
	// generation, proving it can read nontrivial sources end to end.
	smoke := domain.Command{
		Name: fresh,
		Args: []string{"-o-", "-main", domain.BuildDriver},
		Dir:  p.settings.Layout.WorkDir,
	}
	if err := p.runner.Run(ctx, smoke, span, span); err != nil {
		suiteErr := zerr.With(zerr.Wrap(err, domain.ErrSuiteFailed.Error()), "suite", SuiteDubPackage)
		span.RecordError(suiteErr)
		return suiteErr
	}
	return nil
}

// buildDubPackage builds one example with the host toolchain and again
// with the fresh compiler under strict deprecations.
func (p *Pipeline) buildDubPackage(ctx context.Context, file, dir, fresh string, activation ports.Activation) error {
	ctx, span := p.tracer.Start(ctx, "dub-"+file)
	defer span.End()

	args := []string{"build", "--single", file}
	if file == domain.DubSeparateExample {
		args = append(args, "--build-mode=separate")
	}

	host := domain.Command{
		Name: "dub",
		Args: append(append([]string(nil), args...), "--compiler="+activation.Compiler()),
		Dir:  dir,
		Env:  activation.Env(),
	}
	if err := p.runner.Run(ctx, host, span, span); err != nil {
		buildErr := zerr.With(zerr.With(err, "package", file), "compiler", activation.Compiler())
		span.RecordError(buildErr)
		return buildErr
	}

	self := domain.Command{
		Name: "dub",
		Args: append(append([]string(nil), args...), "--compiler="+fresh),
		Dir:  dir,
		Env:  append(activation.Env(), "DFLAGS=-de"),
	}
	if err := p.runner.Run(ctx, self, span, span); err != nil {
		buildErr := zerr.With(zerr.With(err, "package", file), "compiler", fresh)
		span.RecordError(buildErr)
		return buildErr
	}
	return nil
}
