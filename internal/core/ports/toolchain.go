package ports

import (
	"context"

	"github.com/dlang-tools/dci/internal/core/domain"
)

// Activation is an exclusive hold on one installed host compiler.
type Activation interface {
	// Env returns the environment overrides that put the activated
	// compiler first, in "KEY=VALUE" form.
	Env() []string

	// Compiler returns the command name of the activated compiler.
	Compiler() string

	// Close releases the activation lock. It is safe to call twice.
	Close() error
}

// Toolchain defines the interface for installing and activating host compilers.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Install makes the compiler available locally. Repeated calls are
	// safe; implementations may refresh compilers whose identifier is a
	// moving target.
	Install(ctx context.Context, spec domain.CompilerSpec) error

	// Activate acquires the activation lock and returns the environment
	// for running the compiler. Callers must Close the activation.
	Activate(ctx context.Context, spec domain.CompilerSpec) (Activation, error)
}
