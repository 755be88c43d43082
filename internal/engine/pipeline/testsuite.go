package pipeline

import (
	"context"

	"go.trai.ch/zerr"
)

// Testsuite runs the full pipeline sequence: build everything, run all
// test suites, self-rebuild, self-rebuild with the reproducibility
// check, then run the compiler suite once more under the rebuilt
// binary. The sequence stops at the first failing stage.
func (p *Pipeline) Testsuite(ctx context.Context) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"build", p.Build},
		{"test", p.Test},
		{"rebuild", func(ctx context.Context) error { return p.Rebuild(ctx, false) }},
		{"rebuild-compare", func(ctx context.Context) error { return p.Rebuild(ctx, true) }},
		{"test-" + SuiteDmd, p.TestDmd},
	}
	for _, stage := range stages {
		if err := stage.run(ctx); err != nil {
			return zerr.With(err, "stage", stage.name)
		}
	}
	return nil
}
