package domain

import (
	"os"
	"path/filepath"
)

const (
	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600

	// ExecPerm is the permission for executable scripts (rwxr-xr-x).
	ExecPerm = 0o755
)

const (
	// GeneratedRoot is the directory all build artifacts live under,
	// relative to the compiler checkout.
	GeneratedRoot = "generated"

	// StagingRoot is the scratch directory the rebuild stage copies the
	// host-built compiler into before building the compiler with itself.
	StagingRoot = "_generated"

	// BuildKind is the only artifact flavor the pipeline produces.
	BuildKind = "release"

	// ToolchainDirName is the directory under the user's home that holds
	// installed host compilers, one subdirectory per compiler identifier.
	ToolchainDirName = "dlang"

	// ActiveLockName is the lock file guarding exclusive toolchain activation.
	ActiveLockName = ".active"

	// MarkerSuffix is appended to a compiler identifier to form its
	// install marker file name.
	MarkerSuffix = ".installed.json"

	// CompilerBinary is the file name of the built compiler executable.
	CompilerBinary = "dmd"

	// CompilerConfig is the compiler's configuration file, emitted next
	// to the binary.
	CompilerConfig = "dmd.conf"

	// CompilerSrcDir is the makefile directory of the compiler target,
	// relative to the compiler checkout.
	CompilerSrcDir = "src"

	// CompilerTestDir is the compiler's own test corpus directory,
	// relative to the compiler checkout.
	CompilerTestDir = "test"

	// DubPackageDir is the directory holding the dub integration packages,
	// relative to the compiler checkout.
	DubPackageDir = "test/dub_package"

	// DubSeparateExample is the one dub package that only builds with
	// --build-mode=separate.
	DubSeparateExample = "frontend.d"

	// BuildDriver is the build orchestration script the dub suite smoke
	// compiles with the freshly built compiler.
	BuildDriver = "src/build.d"
)

// Layout resolves the project-relative and user-relative paths the
// pipeline reads and writes. WorkDir is the compiler checkout and Home
// is the invoking user's home directory.
type Layout struct {
	WorkDir string
	Home    string

	// ToolchainHome, when set, replaces the default <Home>/dlang
	// toolchain root.
	ToolchainHome string

	// StagingName, when set, replaces the default _generated staging
	// directory name under WorkDir.
	StagingName string
}

// NewLayout builds a Layout rooted at the given checkout directory,
// resolving the user's home directory for the toolchain tree.
func NewLayout(workDir string) (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, err
	}
	return Layout{WorkDir: workDir, Home: home}, nil
}

// OutputDir is where the built compiler lands for the given platform
// class and word model, e.g. generated/linux/release/64.
func (l Layout) OutputDir(osName string, model string) string {
	return filepath.Join(l.WorkDir, GeneratedRoot, osName, BuildKind, model)
}

// CompilerPath is the full path of the built compiler binary.
func (l Layout) CompilerPath(osName string, model string) string {
	return filepath.Join(l.OutputDir(osName, model), CompilerBinary)
}

// ConfigPath is the full path of the compiler's generated configuration file.
func (l Layout) ConfigPath(osName string, model string) string {
	return filepath.Join(l.OutputDir(osName, model), CompilerConfig)
}

// StagingDir is the scratch mirror of OutputDir used by the rebuild stage.
func (l Layout) StagingDir(osName string, model string) string {
	staging := l.StagingName
	if staging == "" {
		staging = StagingRoot
	}
	return filepath.Join(l.WorkDir, staging, osName, BuildKind, model)
}

// StagedCompilerPath is the path of the staged copy of the compiler binary.
func (l Layout) StagedCompilerPath(osName string, model string) string {
	return filepath.Join(l.StagingDir(osName, model), CompilerBinary)
}

// StagedConfigPath is the path of the staged copy of the compiler
// configuration file.
func (l Layout) StagedConfigPath(osName string, model string) string {
	return filepath.Join(l.StagingDir(osName, model), CompilerConfig)
}

// SrcDir is the makefile directory the compiler target builds from.
func (l Layout) SrcDir() string {
	return filepath.Join(l.WorkDir, CompilerSrcDir)
}

// TestDir is the compiler's own test corpus directory.
func (l Layout) TestDir() string {
	return filepath.Join(l.WorkDir, CompilerTestDir)
}

// BuildDriverPath is the full path of the build orchestration script.
func (l Layout) BuildDriverPath() string {
	return filepath.Join(l.WorkDir, BuildDriver)
}

// ToolchainRoot is the directory installed host compilers live under.
func (l Layout) ToolchainRoot() string {
	if l.ToolchainHome != "" {
		return l.ToolchainHome
	}
	return filepath.Join(l.Home, ToolchainDirName)
}

// ToolchainDir is the installation directory of one host compiler.
func (l Layout) ToolchainDir(compiler string) string {
	return filepath.Join(l.ToolchainRoot(), compiler)
}

// ToolchainBinDir holds standalone wrapper executables. It is put on
// PATH while a fixed-variant compiler is active.
func (l Layout) ToolchainBinDir() string {
	return filepath.Join(l.ToolchainRoot(), "bin")
}

// WrapperPath is the install location of a wrapper executable.
func (l Layout) WrapperPath(name string) string {
	return filepath.Join(l.ToolchainBinDir(), name)
}

// MarkerPath is the install marker recording a completed installation
// of the given compiler identifier.
func (l Layout) MarkerPath(compiler string) string {
	return filepath.Join(l.ToolchainRoot(), compiler+MarkerSuffix)
}

// ActiveLockPath is the exclusive activation lock file.
func (l Layout) ActiveLockPath() string {
	return filepath.Join(l.ToolchainRoot(), ActiveLockName)
}

// InstallScriptPath is where the downloaded installer script is kept.
func (l Layout) InstallScriptPath() string {
	return filepath.Join(l.ToolchainRoot(), "install.sh")
}

// RepoDir is the checkout directory of a sibling repository dependency,
// which lives next to the compiler checkout.
func (l Layout) RepoDir(name string) string {
	return filepath.Join(filepath.Dir(l.WorkDir), name)
}

// DubPackagesDir is the directory containing the dub integration packages.
func (l Layout) DubPackagesDir() string {
	return filepath.Join(l.WorkDir, DubPackageDir)
}
