package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingConfig is returned when a required environment input is absent.
	ErrMissingConfig = zerr.New("missing required environment variable")

	// ErrInvalidParallelism is returned when the parallelism count is not a positive integer.
	ErrInvalidParallelism = zerr.New("parallelism must be a positive integer")

	// ErrInvalidPlatform is returned when the platform class is not one of the known set.
	ErrInvalidPlatform = zerr.New("unknown platform class")

	// ErrInvalidModel is returned when the word-size model is neither 32 nor 64.
	ErrInvalidModel = zerr.New("word model must be 32 or 64")

	// ErrInvalidFullBuild is returned when the full-build flag cannot be parsed as a boolean.
	ErrInvalidFullBuild = zerr.New("full build flag must be true or false")

	// ErrEmptyCompilerSpec is returned when a compiler identifier is empty.
	ErrEmptyCompilerSpec = zerr.New("compiler identifier is empty")

	// ErrSettingsReadFailed is returned when the settings file cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read settings file")

	// ErrSettingsParseFailed is returned when the settings file cannot be parsed.
	ErrSettingsParseFailed = zerr.New("failed to parse settings file")

	// ErrRetriesExhausted is returned when an operation fails on every retry attempt.
	ErrRetriesExhausted = zerr.New("operation failed after all retry attempts")

	// ErrCloneFailed is returned when a repository cannot be cloned.
	ErrCloneFailed = zerr.New("failed to clone repository")

	// ErrBranchProbeFailed is returned when a remote branch existence check fails.
	ErrBranchProbeFailed = zerr.New("failed to probe remote branch")

	// ErrAllMirrorsFailed is returned when every download mirror failed.
	ErrAllMirrorsFailed = zerr.New("download failed on every mirror")

	// ErrDownloadFailed is returned when fetching from a single mirror fails.
	ErrDownloadFailed = zerr.New("download failed")

	// ErrTransferTooSlow is returned when a download falls below the minimum transfer rate.
	ErrTransferTooSlow = zerr.New("transfer rate below minimum")

	// ErrInstallFailed is returned when a toolchain installation fails.
	ErrInstallFailed = zerr.New("failed to install host toolchain")

	// ErrToolchainBusy is returned when an activation lock is already held.
	ErrToolchainBusy = zerr.New("toolchain is already active")

	// ErrToolchainNotInstalled is returned when activating a toolchain that was never installed.
	ErrToolchainNotInstalled = zerr.New("toolchain not installed")

	// ErrMarkerReadFailed is returned when an install marker cannot be read.
	ErrMarkerReadFailed = zerr.New("failed to read install marker")

	// ErrMarkerWriteFailed is returned when an install marker cannot be written.
	ErrMarkerWriteFailed = zerr.New("failed to write install marker")

	// ErrBuildFailed is returned when a build target fails to compile.
	ErrBuildFailed = zerr.New("build failed")

	// ErrStageHostFailed is returned when the rebuilt-host staging copy fails.
	ErrStageHostFailed = zerr.New("failed to stage host compiler")

	// ErrCompilerMissing is returned when the rebuild stage cannot find the built compiler.
	ErrCompilerMissing = zerr.New("compiler binary not found at expected output path")

	// ErrNotReproducible is returned when the self-built compiler differs from the host-built one.
	ErrNotReproducible = zerr.New("non-reproducible build: self-built binary differs from host-built binary")

	// ErrSymbolDumpFailed is returned when a symbol-size dump cannot be produced.
	ErrSymbolDumpFailed = zerr.New("failed to dump binary symbols")

	// ErrSuiteFailed is returned when a test suite reports failing cases.
	ErrSuiteFailed = zerr.New("test suite failed")

	// ErrUnknownSuite is returned when a test suite name is not recognized.
	ErrUnknownSuite = zerr.New("unknown test suite")

	// ErrPipelineFailed is returned when any stage of the full pipeline fails.
	ErrPipelineFailed = zerr.New("pipeline failed")
)
