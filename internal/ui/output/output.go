// Package output provides utilities for creating termenv.Output with consistent
// color profile and TTY handling across the CLI.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorProfile returns the color profile for interactive terminals.
// It checks if NO_COLOR is set, returning Ascii if so.
// Otherwise, it detects the terminal's capabilities automatically.
// For CI environments, use ColorProfileANSI() instead.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// ColorProfileANSI returns the color profile for CI and other
// non-interactive environments. It checks if NO_COLOR is set, returning
// Ascii if so. Otherwise it returns ANSI, which every CI log viewer
// understands.
func ColorProfileANSI() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// Interactive reports whether w is attached to an interactive terminal
// outside of CI. It checks if w is a TTY and if CI environment variables
// are set; CI log viewers get the plain ANSI profile either way.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}

	ci := os.Getenv("CI")
	return ci != "true" && ci != "1"
}

// DetectProfile selects the color profile for w: full terminal
// detection when w is an interactive terminal, plain ANSI otherwise.
func DetectProfile(w io.Writer) termenv.Profile {
	if Interactive(w) {
		return ColorProfile()
	}
	return ColorProfileANSI()
}

// New creates a new termenv.Output on w with the given profile.
// A nil writer falls back to os.Stderr.
func New(w io.Writer, profile termenv.Profile, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(profile),
		termenv.WithTTY(true),
	)

	return termenv.NewOutput(w, opts...)
}
