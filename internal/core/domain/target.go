package domain

// Component names. The compiler is built in the working checkout, the
// runtime and standard library in their sibling checkouts.
const (
	TargetCompiler = "dmd"
	TargetRuntime  = "druntime"
	TargetStdlib   = "phobos"
)

// ReducedTestFlags is the fixed argument set the compiler suite runs
// with outside full builds on the primary platform, bounding CI cost.
const ReducedTestFlags = "-O -inline -release"

// BuildTarget is one component the build stage compiles with make.
type BuildTarget struct {
	// Name is the component name and, for the runtime and standard
	// library, the sibling checkout directory.
	Name string

	// MakeVars are extra NAME=value arguments passed to make.
	MakeVars []string
}

// BuildTargets returns the components in dependency order: compiler
// first, then runtime, then standard library.
func BuildTargets() []BuildTarget {
	return []BuildTarget{
		{Name: TargetCompiler, MakeVars: []string{"ENABLE_RELEASE=1", "ENABLE_WARNINGS=1"}},
		{Name: TargetRuntime},
		{Name: TargetStdlib},
	}
}
