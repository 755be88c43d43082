// Package app implements the application layer for dci.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/dlang-tools/dci/internal/adapters/linear"
	"github.com/dlang-tools/dci/internal/adapters/telemetry"
	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/dlang-tools/dci/internal/engine/pipeline"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	runner       ports.Runner
	repos        ports.RepoManager
	toolchain    ports.Toolchain
	logger       ports.Logger

	renderer ports.Renderer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner ports.Runner,
	repos ports.RepoManager,
	tc ports.Toolchain,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		runner:       runner,
		repos:        repos,
		toolchain:    tc,
		logger:       log,
	}
}

// WithRenderer replaces the default stage renderer.
// This is primarily used for testing to capture stage events.
func (a *App) WithRenderer(r ports.Renderer) *App {
	a.renderer = r
	return a
}

// InstallD installs the named host compiler.
func (a *App) InstallD(ctx context.Context, compiler string) error {
	spec, err := domain.ParseCompilerSpec(compiler)
	if err != nil {
		return err
	}
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.InstallHost(ctx, spec)
	})
}

// SetupRepos checks out the dependency repositories on the given branch.
func (a *App) SetupRepos(ctx context.Context, branch string) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.SetupRepos(ctx, branch)
	})
}

// Build compiles the compiler, runtime and standard library.
func (a *App) Build(ctx context.Context) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Build(ctx)
	})
}

// Rebuild builds the compiler with its own freshly built binary as
// host, verifying reproducibility when compare is set.
func (a *App) Rebuild(ctx context.Context, compare bool) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Rebuild(ctx, compare)
	})
}

// Test runs all test suites.
func (a *App) Test(ctx context.Context) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Test(ctx)
	})
}

// RunSuite runs one named test suite.
func (a *App) RunSuite(ctx context.Context, suite string) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Suite(ctx, suite)
	})
}

// Testsuite runs the full pipeline sequence.
func (a *App) Testsuite(ctx context.Context) error {
	return a.runStage(ctx, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Testsuite(ctx)
	})
}

// runStage resolves and validates the configuration, wires the stage
// renderer and tracer, then executes fn with a ready pipeline. Stage
// failures come back joined with ErrPipelineFailed; the renderer has
// already shown them by then.
func (a *App) runStage(ctx context.Context, fn func(context.Context, *pipeline.Pipeline) error) error {
	// 1. Resolve the configuration. Nothing runs on a bad one.
	cfg, err := a.configLoader.Config()
	if err != nil {
		return zerr.Wrap(err, "invalid configuration")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to resolve working directory")
	}
	settings, err := a.configLoader.Settings(cwd)
	if err != nil {
		return err
	}

	// 2. Initialize Renderer
	renderer := a.renderer
	if renderer == nil {
		renderer = linear.NewRenderer(os.Stdout, os.Stderr)
	}

	// 3. Initialize Telemetry
	// Create a bridge that sends OTel spans to the renderer, and
	// configure the global OTel SDK to report spans through it.
	bridge := telemetry.NewBridge(renderer)
	setupOTel(bridge)

	// The renderer is injected into the tracer so stage output streams
	// through the batcher.
	tracer := telemetry.NewOTelTracer("dci").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(ctx)
	}()

	// 4. Initialize the pipeline
	pipe := pipeline.New(cfg, settings, a.runner, a.repos, a.toolchain, tracer, a.logger)

	// 5. Run renderer and pipeline concurrently
	g, ctx := errgroup.WithContext(ctx)

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		// Wait blocks until the renderer has terminated.
		return renderer.Wait()
	})

	// Pipeline Routine
	g.Go(func() error {
		defer func() {
			// Handle panic recovery for the pipeline goroutine
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "Pipeline panic: %v\n", r)
			}
			// Ensure the renderer stops when the pipeline finishes.
			_ = renderer.Stop()
		}()

		if err := fn(ctx, pipe); err != nil {
			return errors.Join(domain.ErrPipelineFailed, err)
		}
		return nil
	})

	return g.Wait()
}

// setupOTel configures the OpenTelemetry SDK with the renderer bridge.
func setupOTel(bridge *telemetry.Bridge) {
	// All started spans get reported to the renderer through the bridge.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
}
