package pipeline_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dlang-tools/dci/internal/adapters/telemetry"
	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports/mocks"
	"github.com/dlang-tools/dci/internal/engine/pipeline"
)

type pipelineMocks struct {
	ctrl      *gomock.Controller
	runner    *mocks.MockRunner
	repos     *mocks.MockRepoManager
	toolchain *mocks.MockToolchain
	logger    *mocks.MockLogger
}

// testConfig returns a validated configuration for a reduced linux run.
func testConfig() domain.Config {
	return domain.Config{
		Parallelism:  4,
		OSName:       domain.PlatformLinux,
		Model:        domain.Model64,
		HostCompiler: domain.CompilerSpec{ID: "dmd-2.109.1", Kind: domain.KindGeneric},
	}
}

// testSettings builds settings rooted at workDir. The parent of workDir
// serves as the sibling directory for dependency checkouts.
func testSettings(workDir string) *domain.Settings {
	return domain.DefaultSettings(domain.Layout{WorkDir: workDir, Home: filepath.Join(workDir, "home")})
}

// setupPipelineTest creates a pipeline under test with mocked ports and
// a no-op tracer, so stage tests only assert what they care about.
func setupPipelineTest(t *testing.T, cfg domain.Config, settings *domain.Settings) (*pipeline.Pipeline, pipelineMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := pipelineMocks{
		ctrl:      ctrl,
		runner:    mocks.NewMockRunner(ctrl),
		repos:     mocks.NewMockRepoManager(ctrl),
		toolchain: mocks.NewMockToolchain(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}

	p := pipeline.New(cfg, settings, m.runner, m.repos, m.toolchain, telemetry.NewNoOpTracer(), m.logger)
	return p, m
}

// stubActivation returns an activation answering to "dmd" with a fixed
// toolchain environment, expecting exactly the given number of releases.
func stubActivation(m pipelineMocks, closes int) *mocks.MockActivation {
	act := mocks.NewMockActivation(m.ctrl)
	act.EXPECT().Compiler().Return("dmd").AnyTimes()
	act.EXPECT().Env().Return([]string{"PATH=/toolchain/bin"}).AnyTimes()
	act.EXPECT().Close().Return(nil).Times(closes)
	return act
}

// commandLog records the commands the pipeline hands to the runner.
// Suite fan-out runs commands concurrently, hence the lock.
type commandLog struct {
	mu   sync.Mutex
	cmds []domain.Command
}

func (l *commandLog) add(cmd domain.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmds = append(l.cmds, cmd)
}

func (l *commandLog) all() []domain.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Command(nil), l.cmds...)
}

// captureRuns records every command the pipeline runs. behave, when
// non-nil, supplies per-command results and output.
func captureRuns(m pipelineMocks, behave func(cmd domain.Command, stdout io.Writer) error) *commandLog {
	log := &commandLog{}
	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd domain.Command, stdout, _ io.Writer) error {
			log.add(cmd)
			if behave != nil {
				return behave(cmd, stdout)
			}
			return nil
		},
	).AnyTimes()
	return log
}

func TestSuite_UnknownName(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	p, _ := setupPipelineTest(t, testConfig(), testSettings(workDir))

	err := p.Suite(context.Background(), "documentation")
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrUnknownSuite)
	require.Contains(t, err.Error(), "unknown test suite")
}

func TestTest_RunsAllSuitesDespiteFailure(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	cfg := testConfig()
	settings := testSettings(workDir)
	require.NoError(t, os.MkdirAll(settings.Layout.DubPackagesDir(), 0o750))

	p, m := setupPipelineTest(t, cfg, settings)

	// The dub and compiler suites activate the host toolchain.
	act := stubActivation(m, 2)
	m.toolchain.EXPECT().Activate(gomock.Any(), cfg.HostCompiler).Return(act, nil).Times(2)

	injected := errors.New("unittest exited 1")
	log := captureRuns(m, func(cmd domain.Command, _ io.Writer) error {
		if cmd.Dir == settings.RepoDir(domain.TargetRuntime) {
			return injected
		}
		return nil
	})

	err := p.Test(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, injected)
	require.Contains(t, err.Error(), "test suite failed")

	// The runtime failure must not stop the remaining suites.
	cmds := log.all()
	var sawStdlib, sawCompiler bool
	for _, cmd := range cmds {
		if cmd.Dir == settings.RepoDir(domain.TargetStdlib) {
			sawStdlib = true
		}
		if cmd.Dir == settings.Layout.TestDir() {
			sawCompiler = true
		}
	}
	require.True(t, sawStdlib, "standard library suite should still run")
	require.True(t, sawCompiler, "compiler suite should still run")
}
