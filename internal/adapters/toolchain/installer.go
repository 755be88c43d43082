// Package toolchain installs and activates host D compilers under the
// user's toolchain root.
package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"github.com/dlang-tools/dci/internal/retry"
)

// execCommandContext is swapped out in tests.
var execCommandContext = exec.CommandContext

// Sources configures where install artifacts come from.
type Sources struct {
	// InstallScriptMirrors are tried in order for the install script.
	InstallScriptMirrors []string

	// GDMDScriptURL is the single source of the gdmd wrapper script.
	GDMDScriptURL string
}

// DefaultSources returns the upstream defaults.
func DefaultSources() Sources {
	return Sources{
		InstallScriptMirrors: domain.DefaultInstallScriptMirrors(),
		GDMDScriptURL:        domain.DefaultGDMDScriptURL,
	}
}

// Installer implements ports.Toolchain. Generic identifiers go through
// the upstream install script, gdmd identifiers through the
// distribution's gdc package plus the gdmd wrapper script.
type Installer struct {
	layout     domain.Layout
	downloader ports.Downloader
	logger     ports.Logger
	policy     retry.Policy
	sources    Sources

	installGroup singleflight.Group
}

// NewInstaller creates an Installer rooted at the given layout.
func NewInstaller(layout domain.Layout, downloader ports.Downloader, logger ports.Logger, sources Sources) *Installer {
	return newInstallerWithPolicy(layout, downloader, logger, sources, retry.Default())
}

func newInstallerWithPolicy(
	layout domain.Layout,
	downloader ports.Downloader,
	logger ports.Logger,
	sources Sources,
	policy retry.Policy,
) *Installer {
	return &Installer{
		layout:     layout,
		downloader: downloader,
		logger:     logger,
		policy:     policy,
		sources:    sources,
	}
}

// Install makes the compiler available under the toolchain root. The
// gdmd variant is gated by its install marker, so repeated calls are
// no-ops. Generic identifiers rerun the upstream install script every
// time; identifiers like dmd-master resolve to a fresh snapshot on each
// run. Concurrent calls for the same identifier are collapsed.
func (i *Installer) Install(ctx context.Context, spec domain.CompilerSpec) error {
	_, err, _ := i.installGroup.Do(spec.ID, func() (any, error) {
		if spec.IsGDC() {
			installed, err := i.isInstalled(spec)
			if err != nil {
				return nil, err
			}
			if installed {
				i.logger.Info(fmt.Sprintf("%s already installed, skipping", spec.ID))
				return nil, nil
			}
		}

		install := i.installGeneric
		if spec.IsGDC() {
			install = i.installGDC
		}
		if err := install(ctx, spec); err != nil {
			return nil, err
		}

		if err := i.writeMarker(spec); err != nil {
			return nil, err
		}
		i.logger.Info(fmt.Sprintf("installed %s", spec.ID))
		return nil, nil
	})
	return err
}

// installGeneric fetches the upstream install script and delegates the
// actual installation to it.
func (i *Installer) installGeneric(ctx context.Context, spec domain.CompilerSpec) error {
	scriptPath := i.layout.InstallScriptPath()
	if err := i.downloader.Fetch(ctx, i.sources.InstallScriptMirrors, scriptPath, domain.ExecPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "compiler", spec.ID)
	}

	return i.policy.Do(ctx, "install "+spec.ID, func(ctx context.Context) error {
		//nolint:gosec // script path and identifier come from validated configuration
		cmd := execCommandContext(ctx, "bash", scriptPath, "install", spec.ID, "--path", i.layout.ToolchainRoot())
		output, err := cmd.CombinedOutput()
		if err != nil {
			installErr := zerr.Wrap(err, domain.ErrInstallFailed.Error())
			installErr = zerr.With(installErr, "compiler", spec.ID)
			return zerr.With(installErr, "output", strings.TrimSpace(string(output)))
		}
		return nil
	})
}

// installGDC installs the distribution gdc package and the gdmd wrapper
// script that gives it a dmd-compatible command line.
func (i *Installer) installGDC(ctx context.Context, spec domain.CompilerSpec) error {
	pkg := "gdc-" + spec.GDCVersion()
	err := i.policy.Do(ctx, "install "+pkg, func(ctx context.Context) error {
		cmd := execCommandContext(ctx, "apt-get", "install", "-y", pkg)
		output, err := cmd.CombinedOutput()
		if err != nil {
			installErr := zerr.Wrap(err, domain.ErrInstallFailed.Error())
			installErr = zerr.With(installErr, "package", pkg)
			return zerr.With(installErr, "output", strings.TrimSpace(string(output)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wrapperPath := i.layout.WrapperPath(spec.ID)
	if err := i.downloader.Fetch(ctx, []string{i.sources.GDMDScriptURL}, wrapperPath, domain.ExecPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "compiler", spec.ID)
	}
	return nil
}

// marker records a completed installation under the toolchain root.
type marker struct {
	Compiler    string    `json:"compiler"`
	Kind        string    `json:"kind"`
	InstalledAt time.Time `json:"installedAt"`
}

func kindString(spec domain.CompilerSpec) string {
	if spec.IsGDC() {
		return "gdc"
	}
	return "generic"
}

func (i *Installer) isInstalled(spec domain.CompilerSpec) (bool, error) {
	//nolint:gosec // the marker path is derived from the validated identifier
	data, err := os.ReadFile(i.layout.MarkerPath(spec.ID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.Wrap(err, domain.ErrMarkerReadFailed.Error())
	}

	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt marker leaves the install state unknown, reinstall.
		return false, nil
	}
	return m.Compiler == spec.ID, nil
}

func (i *Installer) writeMarker(spec domain.CompilerSpec) error {
	path := i.layout.MarkerPath(spec.ID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	data, err := json.MarshalIndent(marker{
		Compiler:    spec.ID,
		Kind:        kindString(spec),
		InstalledAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	tmpFile, err := os.CreateTemp(dir, spec.ID+"-marker-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	return nil
}
