package domain

import (
	"strconv"

	"go.trai.ch/zerr"
)

// Platform classes the pipeline knows how to build for.
const (
	PlatformLinux   = "linux"
	PlatformFreeBSD = "freebsd"
	PlatformOSX     = "osx"
)

// Word-size models.
const (
	Model32 = "32"
	Model64 = "64"
)

// Environment variable names the pipeline reads its inputs from.
const (
	EnvParallelism  = "N"
	EnvOSName       = "OS_NAME"
	EnvFullBuild    = "FULL_BUILD"
	EnvModel        = "MODEL"
	EnvHostCompiler = "HOST_DMD"
)

// Config is the resolved pipeline configuration. All fields are
// required and validated before any stage runs.
type Config struct {
	// Parallelism is the worker count for suite fan-out and make -j.
	Parallelism int

	// OSName is the platform class, one of linux, freebsd or osx.
	OSName string

	// FullBuild selects the full test matrix instead of the reduced one.
	FullBuild bool

	// Model is the word-size model, 32 or 64.
	Model string

	// HostCompiler is the identifier of the bootstrap compiler.
	HostCompiler CompilerSpec
}

// Validate checks every field and returns an error naming the offending
// environment variable, so a missing or malformed input is diagnosable
// from the message alone.
func (c Config) Validate() error {
	if c.Parallelism <= 0 {
		return zerr.With(ErrInvalidParallelism, "variable", EnvParallelism)
	}
	switch c.OSName {
	case PlatformLinux, PlatformFreeBSD, PlatformOSX:
	default:
		return zerr.With(zerr.With(ErrInvalidPlatform, "variable", EnvOSName), "value", c.OSName)
	}
	switch c.Model {
	case Model32, Model64:
	default:
		return zerr.With(zerr.With(ErrInvalidModel, "variable", EnvModel), "value", c.Model)
	}
	if c.HostCompiler.ID == "" {
		return zerr.With(ErrEmptyCompilerSpec, "variable", EnvHostCompiler)
	}
	return nil
}

// ParseParallelism converts the raw N value into a worker count.
func ParseParallelism(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, zerr.With(zerr.With(ErrInvalidParallelism, "variable", EnvParallelism), "value", raw)
	}
	return n, nil
}

// ParseFullBuild converts the raw FULL_BUILD value into a flag.
func ParseFullBuild(raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, zerr.With(zerr.With(ErrInvalidFullBuild, "variable", EnvFullBuild), "value", raw)
	}
	return b, nil
}
