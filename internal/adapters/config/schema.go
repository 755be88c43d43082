package config

// Overlay represents the structure of the optional dci.yaml settings file.
type Overlay struct {
	InstallScriptMirrors []string                      `yaml:"installScriptMirrors"`
	GDMDScriptURL        string                        `yaml:"gdmdScriptUrl"`
	ToolchainRoot        string                        `yaml:"toolchainRoot"`
	StagingDir           string                        `yaml:"stagingDir"`
	Repositories         map[string]RepositoryOverride `yaml:"repositories"`
}

// RepositoryOverride repoints one dependency repository. Empty fields
// keep the default.
type RepositoryOverride struct {
	Remote string `yaml:"remote"`
	Path   string `yaml:"path"`
}
