// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"github.com/dlang-tools/dci/internal/core/domain"
)

// Runner defines the interface for executing external commands.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run executes the command and waits for it to finish.
	//
	// Output is streamed line by line into the structured log and
	// mirrored to stdout and stderr, which lets span writers capture it.
	//
	// The returned error carries the exit code when the process
	// exited nonzero.
	Run(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) error
}
