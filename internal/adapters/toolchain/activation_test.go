package toolchain_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlang-tools/dci/internal/adapters/toolchain"
	"github.com/dlang-tools/dci/internal/core/domain"
)

// seedActivateScript plants the activate script the install script
// would have written.
func seedActivateScript(t *testing.T, layout domain.Layout, id string) {
	t.Helper()
	dir := layout.ToolchainDir(id)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "activate"), []byte("export DMD=ldmd2\n"), 0o755))
}

func TestInstaller_Activate_Generic(t *testing.T) {
	restore := toolchain.SetExecCommandContext(mockExecCommand)
	defer restore()

	layout := newTestLayout(t)
	seedMarker(t, layout, "ldc-1.39.0")
	seedActivateScript(t, layout, "ldc-1.39.0")

	logFile := filepath.Join(t.TempDir(), "commands.log")
	t.Setenv("TOOLCHAIN_HELPER_LOG", logFile)

	exports := filepath.Join(t.TempDir(), "exports.env")
	require.NoError(t, os.WriteFile(exports, []byte("DMD=ldmd2\nDC=ldc2\nPS1=(ldc-1.39.0) \n"), 0o644))
	t.Setenv("TOOLCHAIN_HELPER_ACTIVATE_FILE", exports)

	mockLogger := newTestLogger(t)
	mockLogger.EXPECT().Info("activated ldc-1.39.0")

	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))
	act, err := installer.Activate(t.Context(), domain.CompilerSpec{ID: "ldc-1.39.0", Kind: domain.KindGeneric})
	require.NoError(t, err)

	assert.Equal(t, "ldmd2", act.Compiler())

	env := act.Env()
	assert.Contains(t, env, "DMD=ldmd2")
	assert.Contains(t, env, "DC=ldc2")
	for _, entry := range env {
		assert.False(t, strings.HasPrefix(entry, "PS1="), "shell prompt variables must be filtered: %s", entry)
		assert.False(t, strings.HasPrefix(entry, "HOME="), "unchanged variables must not become overrides: %s", entry)
	}

	// The activate script was sourced from the toolchain directory.
	log, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(log), filepath.Join(layout.ToolchainDir("ldc-1.39.0"), "activate"))

	lockData, err := os.ReadFile(layout.ActiveLockPath())
	require.NoError(t, err)
	assert.Contains(t, string(lockData), "ldc-1.39.0")

	require.NoError(t, act.Close())
	assert.NoFileExists(t, layout.ActiveLockPath())
	require.NoError(t, act.Close())
}

func TestInstaller_Activate_GDC(t *testing.T) {
	layout := newTestLayout(t)
	seedMarker(t, layout, "gdmd-12")

	mockLogger := newTestLogger(t)
	mockLogger.EXPECT().Info("activated gdmd-12")

	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))
	act, err := installer.Activate(t.Context(), domain.CompilerSpec{ID: "gdmd-12", Kind: domain.KindFixedGDC})
	require.NoError(t, err)
	t.Cleanup(func() { _ = act.Close() })

	assert.Equal(t, "gdmd-12", act.Compiler())

	env := act.Env()
	assert.Contains(t, env, "DMD=gdmd-12")

	var pathEntry string
	for _, entry := range env {
		if strings.HasPrefix(entry, "PATH=") {
			pathEntry = entry
		}
	}
	require.NotEmpty(t, pathEntry)
	assert.True(t, strings.HasPrefix(pathEntry, "PATH="+layout.ToolchainBinDir()),
		"wrapper directory must lead PATH: %s", pathEntry)
}

func TestInstaller_Activate_NotInstalled(t *testing.T) {
	layout := newTestLayout(t)
	mockLogger := newTestLogger(t)

	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))
	_, err := installer.Activate(t.Context(), domain.CompilerSpec{ID: "dmd-2.109.1", Kind: domain.KindGeneric})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolchainNotInstalled.Error())
	assert.NoFileExists(t, layout.ActiveLockPath())
}

func TestInstaller_Activate_Busy(t *testing.T) {
	layout := newTestLayout(t)
	seedMarker(t, layout, "ldc-1.39.0")
	seedActivateScript(t, layout, "ldc-1.39.0")
	require.NoError(t, os.WriteFile(layout.ActiveLockPath(), []byte("{}"), 0o600))

	mockLogger := newTestLogger(t)
	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))

	_, err := installer.Activate(t.Context(), domain.CompilerSpec{ID: "ldc-1.39.0", Kind: domain.KindGeneric})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolchainBusy.Error())

	// The foreign lock is left untouched.
	assert.FileExists(t, layout.ActiveLockPath())
}

func TestInstaller_Activate_MissingActivateScript(t *testing.T) {
	restore := toolchain.SetExecCommandContext(mockExecCommand)
	defer restore()

	layout := newTestLayout(t)
	// Marker present but the toolchain directory itself is gone.
	seedMarker(t, layout, "ldc-1.39.0")

	mockLogger := newTestLogger(t)
	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))

	_, err := installer.Activate(t.Context(), domain.CompilerSpec{ID: "ldc-1.39.0", Kind: domain.KindGeneric})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolchainNotInstalled.Error())

	// The lock must not leak on the failure path.
	assert.NoFileExists(t, layout.ActiveLockPath())
}

func TestInstaller_Activate_ReacquireAfterClose(t *testing.T) {
	layout := newTestLayout(t)
	seedMarker(t, layout, "gdmd-12")

	mockLogger := newTestLogger(t)
	mockLogger.EXPECT().Info("activated gdmd-12").Times(2)

	installer := toolchain.NewInstallerWithPolicy(layout, newTestDownloader(t), mockLogger, testSources(), testPolicy(1))
	spec := domain.CompilerSpec{ID: "gdmd-12", Kind: domain.KindFixedGDC}

	first, err := installer.Activate(t.Context(), spec)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := installer.Activate(t.Context(), spec)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
