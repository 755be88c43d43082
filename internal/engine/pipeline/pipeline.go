// Package pipeline implements the stages of the self-hosting compiler
// pipeline: host installation, dependency checkout, the three-target
// build, the self-hosting rebuild with reproducibility verification,
// and the tiered test suites.
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// posixMakefile is the makefile name shared by the compiler, runtime and
// standard library checkouts.
const posixMakefile = "posix.mak"

// Pipeline runs the build-and-verification stages. All stages operate on
// one validated configuration; the zero value is not usable.
type Pipeline struct {
	cfg       domain.Config
	settings  *domain.Settings
	runner    ports.Runner
	repos     ports.RepoManager
	toolchain ports.Toolchain
	tracer    ports.Tracer
	logger    ports.Logger
}

// New creates a Pipeline with the given dependencies. cfg must already
// be validated.
func New(
	cfg domain.Config,
	settings *domain.Settings,
	runner ports.Runner,
	repos ports.RepoManager,
	toolchain ports.Toolchain,
	tracer ports.Tracer,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		settings:  settings,
		runner:    runner,
		repos:     repos,
		toolchain: toolchain,
		tracer:    tracer,
		logger:    logger,
	}
}

// makeCommand builds a make invocation in dir honoring the configured
// parallelism and word model. makefile may be empty for the default
// Makefile; vars are extra NAME=value arguments and targets.
func (p *Pipeline) makeCommand(dir, makefile string, vars ...string) domain.Command {
	var args []string
	if makefile != "" {
		args = append(args, "-f", makefile)
	}
	args = append(args, "-j"+strconv.Itoa(p.cfg.Parallelism), "MODEL="+p.cfg.Model)
	args = append(args, vars...)
	return domain.Command{Name: "make", Args: args, Dir: dir}
}

// copyFile copies src to dst with the given permissions, creating or
// truncating dst.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src) // #nosec G304 -- both paths derive from the validated layout
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open source"), "file", src)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm) // #nosec G304
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create destination"), "file", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy"), "file", dst)
	}

	if err := out.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to finish copy"), "file", dst)
	}
	return nil
}

// filesEqual reports whether two files have identical content.
func filesEqual(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to stat"), "file", a)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to stat"), "file", b)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(a) // #nosec G304 -- paths derive from the validated layout
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to open"), "file", a)
	}
	defer func() { _ = fa.Close() }()

	fb, err := os.Open(b) // #nosec G304
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to open"), "file", b)
	}
	defer func() { _ = fb.Close() }()

	bufA := make([]byte, 64*1024)
	bufB := make([]byte, 64*1024)
	for {
		nA, errA := io.ReadFull(fa, bufA)
		nB, errB := io.ReadFull(fb, bufB)
		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return true, nil
		}
		if errA != nil {
			return false, zerr.With(zerr.Wrap(errA, "failed to read"), "file", a)
		}
		if errB != nil {
			return false, zerr.With(zerr.Wrap(errB, "failed to read"), "file", b)
		}
	}
}

// fileDigest returns the xxhash64 digest of the file in hex.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path derives from the validated layout
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open"), "file", path)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to hash"), "file", path)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
