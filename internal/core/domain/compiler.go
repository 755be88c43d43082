package domain

import "strings"

// CompilerKind distinguishes how a host compiler gets installed.
type CompilerKind int

const (
	// KindGeneric covers every identifier the upstream install script
	// understands, e.g. dmd-2.109.1 or ldc-1.39.0.
	KindGeneric CompilerKind = iota

	// KindFixedGDC covers gdmd-<n> identifiers, which are served by the
	// distribution's gdc package plus the gdmd wrapper script.
	KindFixedGDC
)

// gdcPrefix marks the fixed-version GDC wrapper variant.
const gdcPrefix = "gdmd-"

// CompilerSpec identifies one host compiler and how to install it.
type CompilerSpec struct {
	// ID is the full identifier as given, e.g. dmd-2.109.1 or gdmd-12.
	ID string

	// Kind selects the installation strategy.
	Kind CompilerKind
}

// ParseCompilerSpec classifies a raw compiler identifier.
func ParseCompilerSpec(raw string) (CompilerSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CompilerSpec{}, ErrEmptyCompilerSpec
	}
	spec := CompilerSpec{ID: raw, Kind: KindGeneric}
	if strings.HasPrefix(raw, gdcPrefix) {
		spec.Kind = KindFixedGDC
	}
	return spec, nil
}

// IsGDC reports whether the spec names the GDC wrapper variant.
func (s CompilerSpec) IsGDC() bool {
	return s.Kind == KindFixedGDC
}

// GDCVersion returns the version suffix of a gdmd identifier, e.g. "12"
// for gdmd-12. It returns the empty string for generic specs.
func (s CompilerSpec) GDCVersion() string {
	if s.Kind != KindFixedGDC {
		return ""
	}
	return strings.TrimPrefix(s.ID, gdcPrefix)
}

// String returns the identifier.
func (s CompilerSpec) String() string {
	return s.ID
}
