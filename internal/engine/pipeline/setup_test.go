package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/dlang-tools/dci/internal/core/ports/mocks"
	"github.com/dlang-tools/dci/internal/engine/pipeline"
)

func TestInstallHost(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	p, m := setupPipelineTest(t, testConfig(), testSettings(workDir))

	// The installed compiler may differ from the configured host.
	spec := domain.CompilerSpec{ID: "ldc-1.39.0", Kind: domain.KindGeneric}
	m.toolchain.EXPECT().Install(gomock.Any(), spec).Return(nil).Times(1)

	require.NoError(t, p.InstallHost(context.Background(), spec))
}

func TestInstallHost_Error(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	cfg := testConfig()
	p, m := setupPipelineTest(t, cfg, testSettings(workDir))

	injected := errors.New("all mirrors unreachable")
	m.toolchain.EXPECT().Install(gomock.Any(), cfg.HostCompiler).Return(injected).Times(1)

	err := p.InstallHost(context.Background(), cfg.HostCompiler)
	require.ErrorIs(t, err, injected)
}

// The stage span carries the compiler identifier and the failure, so a
// failed install is diagnosable from the trace alone.
func TestInstallHost_SpanLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	toolchainMock := mocks.NewMockToolchain(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	spec := domain.CompilerSpec{ID: "dmd-2.109.1", Kind: domain.KindGeneric}
	injected := errors.New("all mirrors unreachable")

	tracer.EXPECT().Start(gomock.Any(), "install-host").DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		})
	span.EXPECT().SetAttribute("compiler", "dmd-2.109.1")
	toolchainMock.EXPECT().Install(gomock.Any(), spec).Return(injected)
	span.EXPECT().RecordError(injected)
	span.EXPECT().End()

	workDir := filepath.Join(t.TempDir(), "dmd")
	p := pipeline.New(testConfig(), testSettings(workDir), mocks.NewMockRunner(ctrl),
		mocks.NewMockRepoManager(ctrl), toolchainMock, tracer, mocks.NewMockLogger(ctrl))

	require.ErrorIs(t, p.InstallHost(context.Background(), spec), injected)
}

func TestSetupRepos_WellKnownBranch(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	// master always exists upstream, so no existence probe happens.
	for _, repo := range settings.Repositories {
		m.repos.EXPECT().
			Clone(gomock.Any(), repo, domain.BranchMaster, settings.RepoDir(repo.Name)).
			Return(nil).Times(1)
	}

	require.NoError(t, p.SetupRepos(context.Background(), domain.BranchMaster))
}

func TestSetupRepos_FeatureBranchExists(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	for _, repo := range settings.Repositories {
		m.repos.EXPECT().
			RemoteBranchExists(gomock.Any(), repo.RemoteURL, "feature-x").
			Return(true, nil).Times(1)
		m.repos.EXPECT().
			Clone(gomock.Any(), repo, "feature-x", settings.RepoDir(repo.Name)).
			Return(nil).Times(1)
	}

	require.NoError(t, p.SetupRepos(context.Background(), "feature-x"))
}

func TestSetupRepos_FeatureBranchFallsBack(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	for _, repo := range settings.Repositories {
		m.repos.EXPECT().
			RemoteBranchExists(gomock.Any(), repo.RemoteURL, "feature-x").
			Return(false, nil).Times(1)
		m.repos.EXPECT().
			Clone(gomock.Any(), repo, domain.DefaultBranch, settings.RepoDir(repo.Name)).
			Return(nil).Times(1)
	}
	m.logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		require.Contains(t, msg, "falling back to "+domain.DefaultBranch)
	}).Times(2)

	require.NoError(t, p.SetupRepos(context.Background(), "feature-x"))
}

func TestSetupRepos_SkipsExistingCheckout(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	// The runtime checkout already exists; only the standard library
	// gets cloned.
	existing := settings.RepoDir(domain.TargetRuntime)
	require.NoError(t, os.MkdirAll(existing, 0o750))

	m.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		require.Contains(t, msg, "skipping")
		require.Contains(t, msg, domain.TargetRuntime)
	}).Times(1)

	for _, repo := range settings.Repositories {
		if repo.Name == domain.TargetRuntime {
			continue
		}
		m.repos.EXPECT().
			Clone(gomock.Any(), repo, domain.BranchStable, settings.RepoDir(repo.Name)).
			Return(nil).Times(1)
	}

	require.NoError(t, p.SetupRepos(context.Background(), domain.BranchStable))
}

func TestSetupRepos_CloneError(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	injected := errors.New("remote hung up")
	first := settings.Repositories[0]
	m.repos.EXPECT().
		Clone(gomock.Any(), first, domain.BranchMaster, settings.RepoDir(first.Name)).
		Return(injected).Times(1)

	err := p.SetupRepos(context.Background(), domain.BranchMaster)
	require.ErrorIs(t, err, injected)
}

func TestSetupRepos_ProbeError(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "dmd")
	settings := testSettings(workDir)
	p, m := setupPipelineTest(t, testConfig(), settings)

	injected := errors.New("ls-remote timed out")
	first := settings.Repositories[0]
	m.repos.EXPECT().
		RemoteBranchExists(gomock.Any(), first.RemoteURL, "feature-x").
		Return(false, injected).Times(1)

	err := p.SetupRepos(context.Background(), "feature-x")
	require.ErrorIs(t, err, injected)
}
