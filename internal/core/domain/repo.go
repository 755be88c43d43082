package domain

// Well-known branches that are never substituted. A feature branch that
// does not exist on a dependency falls back to the default branch, but
// these two always have to exist.
const (
	BranchMaster = "master"
	BranchStable = "stable"
)

// DefaultBranch is the fallback when a feature branch has no counterpart
// on a dependency repository.
const DefaultBranch = BranchMaster

// upstreamBase is the remote all dependency repositories are cloned from.
const upstreamBase = "https://github.com/dlang/"

// RepositoryDependency is one sibling repository the compiler build needs.
type RepositoryDependency struct {
	// Name is the repository and sibling directory name.
	Name string

	// RemoteURL is the upstream clone URL.
	RemoteURL string
}

// RepositoryDependencies returns the repositories the build depends on,
// in build order.
func RepositoryDependencies() []RepositoryDependency {
	return []RepositoryDependency{
		{Name: TargetRuntime, RemoteURL: upstreamBase + TargetRuntime + ".git"},
		{Name: TargetStdlib, RemoteURL: upstreamBase + TargetStdlib + ".git"},
	}
}

// IsWellKnownBranch reports whether the branch always exists upstream
// and must never be substituted.
func IsWellKnownBranch(branch string) bool {
	return branch == BranchMaster || branch == BranchStable
}
