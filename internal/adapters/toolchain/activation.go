package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// Activate acquires the exclusive activation lock and builds the
// environment that puts the compiler first. The caller must Close the
// returned activation on every exit path.
func (i *Installer) Activate(ctx context.Context, spec domain.CompilerSpec) (ports.Activation, error) {
	installed, err := i.isInstalled(spec)
	if err != nil {
		return nil, err
	}
	if !installed {
		return nil, zerr.With(domain.ErrToolchainNotInstalled, "compiler", spec.ID)
	}

	lockPath, err := i.acquireLock(spec)
	if err != nil {
		return nil, err
	}

	var env []string
	compiler := spec.ID
	if spec.IsGDC() {
		env = i.wrapperEnv(spec)
	} else {
		env, err = i.sourcedEnv(ctx, spec)
		if err != nil {
			_ = os.Remove(lockPath)
			return nil, err
		}
		compiler = compilerFromEnv(env)
	}

	i.logger.Info(fmt.Sprintf("activated %s", spec.ID))
	return &activation{env: env, compiler: compiler, lockPath: lockPath}, nil
}

// lockInfo identifies the process holding the activation lock.
type lockInfo struct {
	Compiler   string    `json:"compiler"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

func (i *Installer) acquireLock(spec domain.CompilerSpec) (string, error) {
	lockPath := i.layout.ActiveLockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), domain.DirPerm); err != nil {
		return "", zerr.Wrap(err, "failed to create toolchain root")
	}

	//nolint:gosec // the lock lives under the toolchain root we created
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, domain.PrivateFilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", zerr.With(zerr.With(domain.ErrToolchainBusy, "lock", lockPath), "compiler", spec.ID)
		}
		return "", zerr.Wrap(err, "failed to acquire activation lock")
	}

	info := lockInfo{Compiler: spec.ID, PID: os.Getpid(), AcquiredAt: time.Now().UTC()}
	if data, err := json.MarshalIndent(info, "", "  "); err == nil {
		_, _ = f.Write(data)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return "", zerr.Wrap(err, "failed to write activation lock")
	}
	return lockPath, nil
}

// sourcedEnv sources the toolchain's activate script in a subshell and
// diffs the resulting environment against the current one, keeping only
// the entries the script added or changed.
func (i *Installer) sourcedEnv(ctx context.Context, spec domain.CompilerSpec) ([]string, error) {
	activateScript := filepath.Join(i.layout.ToolchainDir(spec.ID), "activate")
	if _, err := os.Stat(activateScript); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrToolchainNotInstalled.Error()), "compiler", spec.ID)
	}

	//nolint:gosec // the script lives under the toolchain root we populated
	cmd := execCommandContext(ctx, "bash", "-c", fmt.Sprintf("source %q > /dev/null 2>&1 && env", activateScript))
	output, err := cmd.Output()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to source activate script"), "compiler", spec.ID)
	}

	return diffEnv(string(output), os.Environ()), nil
}

// wrapperEnv puts the wrapper directory on PATH and names the wrapper
// as the dmd-compatible driver.
func (i *Installer) wrapperEnv(spec domain.CompilerSpec) []string {
	binDir := i.layout.ToolchainBinDir()
	path := binDir
	if current := os.Getenv("PATH"); current != "" {
		path = binDir + string(os.PathListSeparator) + current
	}
	return []string{"DMD=" + spec.ID, "PATH=" + path}
}

// diffEnv extracts KEY=VALUE lines from env output and keeps the
// entries that differ from the baseline, dropping shell noise. Values
// spanning multiple lines are truncated at the first line.
func diffEnv(output string, baseline []string) []string {
	base := make(map[string]string, len(baseline))
	for _, entry := range baseline {
		if key, value, ok := strings.Cut(entry, "="); ok {
			base[key] = value
		}
	}

	var env []string
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || !shouldIncludeVar(key) {
			continue
		}
		if prev, exists := base[key]; exists && prev == value {
			continue
		}
		env = append(env, line)
	}
	slices.Sort(env)
	return env
}

// shouldIncludeVar determines if an environment variable belongs in the
// activation overrides. Interactive shell variables are excluded.
func shouldIncludeVar(key string) bool {
	exclude := []string{
		"SHELL",
		"PS1",
		"PS2",
		"SHLVL",
		"PWD",
		"OLDPWD",
		"_",
	}
	return !slices.Contains(exclude, key)
}

// compilerFromEnv reads the DMD entry the activate script exports. The
// install script sets it to the dmd-compatible driver, which is ldmd2
// for LDC and gdmd for GDC builds.
func compilerFromEnv(env []string) string {
	for _, entry := range env {
		if value, ok := strings.CutPrefix(entry, "DMD="); ok && value != "" {
			return value
		}
	}
	return domain.CompilerBinary
}

// activation is an exclusive hold on one installed compiler.
type activation struct {
	env      []string
	compiler string
	lockPath string

	mu       sync.Mutex
	released bool
}

// Env returns the environment overrides for running the compiler.
func (a *activation) Env() []string {
	return slices.Clone(a.env)
}

// Compiler returns the dmd-compatible driver command.
func (a *activation) Compiler() string {
	return a.compiler
}

// Close releases the activation lock. It is safe to call twice.
func (a *activation) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil
	}
	a.released = true

	if err := os.Remove(a.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, "failed to release activation lock")
	}
	return nil
}
