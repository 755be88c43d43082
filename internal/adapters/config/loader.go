// Package config provides the configuration loader for dci.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// Loader implements ports.ConfigLoader from environment variables and
// an optional YAML settings overlay.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// requiredVars are the environment variables every pipeline run needs,
// in the order they are reported when missing.
var requiredVars = []string{
	domain.EnvParallelism,
	domain.EnvOSName,
	domain.EnvFullBuild,
	domain.EnvModel,
	domain.EnvHostCompiler,
}

// Config assembles and validates the run configuration from the
// environment. An unset or empty variable is reported by name.
func (l *Loader) Config() (domain.Config, error) {
	values := make(map[string]string, len(requiredVars))
	for _, name := range requiredVars {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return domain.Config{}, zerr.With(domain.ErrMissingConfig, "variable", name)
		}
		values[name] = v
	}

	parallelism, err := domain.ParseParallelism(values[domain.EnvParallelism])
	if err != nil {
		return domain.Config{}, err
	}

	fullBuild, err := domain.ParseFullBuild(values[domain.EnvFullBuild])
	if err != nil {
		return domain.Config{}, err
	}

	hostCompiler, err := domain.ParseCompilerSpec(values[domain.EnvHostCompiler])
	if err != nil {
		return domain.Config{}, zerr.With(err, "variable", domain.EnvHostCompiler)
	}

	cfg := domain.Config{
		Parallelism:  parallelism,
		OSName:       values[domain.EnvOSName],
		FullBuild:    fullBuild,
		Model:        values[domain.EnvModel],
		HostCompiler: hostCompiler,
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Settings loads the optional dci.yaml overlay from workDir and applies
// it over the embedded defaults. A missing overlay file yields the
// defaults unchanged.
func (l *Loader) Settings(workDir string) (*domain.Settings, error) {
	layout, err := domain.NewLayout(workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve home directory")
	}

	settings := domain.DefaultSettings(layout)

	overlayPath := filepath.Join(workDir, domain.SettingsFileName)
	if _, err := os.Stat(overlayPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, zerr.Wrap(err, domain.ErrSettingsReadFailed.Error())
	}

	var overlay Overlay
	if err := readAndUnmarshalYAML(overlayPath, &overlay); err != nil {
		return nil, zerr.With(err, "path", overlayPath)
	}

	l.apply(settings, &overlay, workDir)
	return settings, nil
}

func (l *Loader) apply(settings *domain.Settings, overlay *Overlay, workDir string) {
	if len(overlay.InstallScriptMirrors) > 0 {
		settings.InstallScriptMirrors = overlay.InstallScriptMirrors
	}
	if overlay.GDMDScriptURL != "" {
		settings.GDMDScriptURL = overlay.GDMDScriptURL
	}
	if overlay.ToolchainRoot != "" {
		settings.Layout.ToolchainHome = resolveUserPath(settings.Layout.Home, workDir, overlay.ToolchainRoot)
	}
	if overlay.StagingDir != "" {
		settings.Layout.StagingName = overlay.StagingDir
	}

	known := make(map[string]int, len(settings.Repositories))
	for i, repo := range settings.Repositories {
		known[repo.Name] = i
	}

	// Sort names so repeated loads warn in a stable order.
	for _, name := range slices.Sorted(maps.Keys(overlay.Repositories)) {
		idx, ok := known[name]
		if !ok {
			l.Logger.Warn(fmt.Sprintf("unknown repository %q in %s, ignoring", name, domain.SettingsFileName))
			continue
		}

		override := overlay.Repositories[name]
		if override.Remote != "" {
			settings.Repositories[idx].RemoteURL = override.Remote
		}
		if override.Path != "" {
			if settings.RepoPaths == nil {
				settings.RepoPaths = make(map[string]string)
			}
			settings.RepoPaths[name] = resolveUserPath(settings.Layout.Home, workDir, override.Path)
		}
	}
}

// resolveUserPath expands a leading ~ against the home directory and
// anchors relative paths at the working directory.
func resolveUserPath(home, base, p string) string {
	if p == "~" {
		return home
	}
	if after, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, after)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSettingsReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrSettingsParseFailed.Error())
	}

	return nil
}
