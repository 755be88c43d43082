package domain

// SettingsFileName is the optional per-checkout settings overlay.
const SettingsFileName = "dci.yaml"

// DefaultGDMDScriptURL is the canonical location of the gdmd wrapper
// script used by the fixed-version GDC variant.
const DefaultGDMDScriptURL = "https://raw.githubusercontent.com/D-Programming-GDC/gdmd/master/dmd-script"

// DefaultInstallScriptMirrors returns the ordered sources of the
// upstream toolchain install script. The first reachable mirror wins.
func DefaultInstallScriptMirrors() []string {
	return []string{
		"https://dlang.org/install.sh",
		"https://downloads.dlang.org/other/install.sh",
		"https://nightlies.dlang.org/install.sh",
	}
}

// Settings is the resolved tool configuration: the embedded defaults
// with the optional dci.yaml overlay applied on top. Unlike Config it
// never depends on environment variables and loading it cannot fail on
// a missing overlay file.
type Settings struct {
	// Layout resolves every path the pipeline reads or writes.
	Layout Layout

	// InstallScriptMirrors are the ordered install script sources.
	InstallScriptMirrors []string

	// GDMDScriptURL is where the gdmd wrapper script is fetched from.
	GDMDScriptURL string

	// Repositories are the dependency repositories with any remote
	// overrides applied, in build order.
	Repositories []RepositoryDependency

	// RepoPaths maps repository names to explicit checkout
	// directories, overriding the sibling-of-checkout default.
	RepoPaths map[string]string
}

// DefaultSettings returns the embedded defaults for the given layout.
func DefaultSettings(layout Layout) *Settings {
	return &Settings{
		Layout:               layout,
		InstallScriptMirrors: DefaultInstallScriptMirrors(),
		GDMDScriptURL:        DefaultGDMDScriptURL,
		Repositories:         RepositoryDependencies(),
	}
}

// RepoDir resolves the checkout directory of a dependency repository,
// honoring a path override when one is configured.
func (s *Settings) RepoDir(name string) string {
	if dir, ok := s.RepoPaths[name]; ok && dir != "" {
		return dir
	}
	return s.Layout.RepoDir(name)
}
