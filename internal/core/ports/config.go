package ports

import "github.com/dlang-tools/dci/internal/core/domain"

// ConfigLoader defines the interface for loading the run configuration.
//
//go:generate mockgen -source=config.go -destination=mocks/mock_config.go -package=mocks
type ConfigLoader interface {
	// Config assembles and validates the pipeline configuration from
	// the required environment variables. A missing or malformed
	// variable is a fatal configuration error naming the variable.
	Config() (domain.Config, error)

	// Settings loads the optional settings overlay from the working
	// directory, applied over the embedded defaults. A missing overlay
	// file is not an error.
	Settings(workDir string) (*domain.Settings, error)
}
