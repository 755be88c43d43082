package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"

	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
)

// reportName is the reproducibility diff report written into the
// staging directory on a mismatch.
const reportName = "reproducibility-report.diff"

// Rebuild stages the host-built compiler into the staging mirror,
// cleans the primary output and rebuilds the compiler with the staged
// binary as host. With compare set, the rebuilt binary must be
// byte-identical to the staged one; a mismatch produces symbol dumps,
// a diff report and a non-reproducible-build failure.
func (p *Pipeline) Rebuild(ctx context.Context, compare bool) error {
	ctx, span := p.tracer.Start(ctx, "rebuild")
	defer span.End()
	span.SetAttribute("compare", compare)

	layout := p.settings.Layout
	binary := layout.CompilerPath(p.cfg.OSName, p.cfg.Model)
	config := layout.ConfigPath(p.cfg.OSName, p.cfg.Model)

	// The rebuild consumes the build stage's artifacts; both must be
	// present before make runs.
	for _, path := range []string{binary, config} {
		if _, err := os.Stat(path); err != nil {
			missing := zerr.With(domain.ErrCompilerMissing, "path", path)
			span.RecordError(missing)
			return missing
		}
	}

	if err := p.stageHost(ctx, binary, config); err != nil {
		span.RecordError(err)
		return err
	}

	staged := layout.StagedCompilerPath(p.cfg.OSName, p.cfg.Model)
	if err := p.rebuildWith(ctx, staged); err != nil {
		span.RecordError(err)
		return err
	}

	if !compare {
		return nil
	}
	if err := p.verifyReproducible(ctx, staged, binary); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// stageHost copies the compiler binary and its configuration into the
// staging mirror. The nested hierarchy matches the primary output so
// the copied dmd.conf keeps resolving its relative paths.
func (p *Pipeline) stageHost(ctx context.Context, binary, config string) error {
	_, span := p.tracer.Start(ctx, "stage-host")
	defer span.End()

	layout := p.settings.Layout
	stagingDir := layout.StagingDir(p.cfg.OSName, p.cfg.Model)
	if err := os.MkdirAll(stagingDir, domain.DirPerm); err != nil {
		stageErr := zerr.With(zerr.Wrap(err, domain.ErrStageHostFailed.Error()), "dir", stagingDir)
		span.RecordError(stageErr)
		return stageErr
	}

	copies := []struct {
		src, dst string
		perm     os.FileMode
	}{
		{binary, layout.StagedCompilerPath(p.cfg.OSName, p.cfg.Model), domain.ExecPerm},
		{config, layout.StagedConfigPath(p.cfg.OSName, p.cfg.Model), domain.FilePerm},
	}
	for _, c := range copies {
		if err := copyFile(c.src, c.dst, c.perm); err != nil {
			stageErr := zerr.Wrap(err, domain.ErrStageHostFailed.Error())
			span.RecordError(stageErr)
			return stageErr
		}
	}
	return nil
}

// rebuildWith cleans and rebuilds the compiler target with hostPath as
// the host compiler.
func (p *Pipeline) rebuildWith(ctx context.Context, hostPath string) error {
	ctx, span := p.tracer.Start(ctx, "rebuild-"+domain.TargetCompiler)
	defer span.End()

	srcDir := p.settings.Layout.SrcDir()

	clean := p.makeCommand(srcDir, posixMakefile, "HOST_DMD="+hostPath, "clean")
	if err := p.runner.Run(ctx, clean, span, span); err != nil {
		cleanErr := zerr.With(zerr.Wrap(err, domain.ErrBuildFailed.Error()), "target", "clean")
		span.RecordError(cleanErr)
		return cleanErr
	}

	// Same release flag as the build stage, so the binaries can match.
	build := p.makeCommand(srcDir, posixMakefile, "HOST_DMD="+hostPath, "ENABLE_RELEASE=1")
	if err := p.runner.Run(ctx, build, span, span); err != nil {
		buildErr := zerr.With(zerr.Wrap(err, domain.ErrBuildFailed.Error()), "target", domain.TargetCompiler)
		span.RecordError(buildErr)
		return buildErr
	}
	return nil
}

// verifyReproducible byte-compares the staged host-built binary against
// the freshly self-built one.
func (p *Pipeline) verifyReproducible(ctx context.Context, original, rebuilt string) error {
	ctx, span := p.tracer.Start(ctx, "compare")
	defer span.End()

	equal, err := filesEqual(original, rebuilt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if equal {
		if digest := p.digestOrWarn(rebuilt); digest != "" {
			span.SetAttribute("xxh64", digest)
			p.logger.Info(fmt.Sprintf("reproducible build verified, xxh64 %s", digest))
		}
		return nil
	}

	hostDigest := p.digestOrWarn(original)
	selfDigest := p.digestOrWarn(rebuilt)
	report := p.writeMismatchReport(ctx, span, original, rebuilt, hostDigest, selfDigest)

	var failure error = domain.ErrNotReproducible
	failure = zerr.With(failure, "host_built_xxh64", hostDigest)
	failure = zerr.With(failure, "self_built_xxh64", selfDigest)
	if report != "" {
		failure = zerr.With(failure, "report", report)
	}
	span.RecordError(failure)
	return failure
}

// writeMismatchReport dumps the symbol tables of both binaries, diffs
// them and writes the result into the staging directory. It returns the
// report path, or empty when the diagnostics could not be produced.
func (p *Pipeline) writeMismatchReport(ctx context.Context, span ports.Span, original, rebuilt, hostDigest, selfDigest string) string {
	dumps := make([]string, 0, 2)
	for _, binary := range []string{original, rebuilt} {
		dump := binary + ".symbols"
		if err := p.dumpSymbols(ctx, span, binary, dump); err != nil {
			p.logger.Warn("skipping symbol diff: " + err.Error())
			return ""
		}
		dumps = append(dumps, dump)
	}

	reportPath := filepath.Join(p.settings.Layout.StagingDir(p.cfg.OSName, p.cfg.Model), reportName)
	report, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm) // #nosec G304
	if err != nil {
		p.logger.Warn("cannot write reproducibility report: " + err.Error())
		return ""
	}
	defer func() { _ = report.Close() }()

	_, _ = fmt.Fprintf(report, "host-built %s xxh64 %s\nself-built %s xxh64 %s\n\n",
		original, hostDigest, rebuilt, selfDigest)

	// diff exits nonzero precisely because the dumps differ.
	diff := domain.Command{Name: "diff", Args: []string{"-u", dumps[0], dumps[1]}}
	_ = p.runner.Run(ctx, diff, report, span)

	p.logger.Info("symbol diff written to " + reportPath)
	return reportPath
}

// dumpSymbols writes a symbol-table-with-sizes listing of binary to dump.
func (p *Pipeline) dumpSymbols(ctx context.Context, span ports.Span, binary, dump string) error {
	out, err := os.OpenFile(dump, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, domain.FilePerm) // #nosec G304
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSymbolDumpFailed.Error()), "file", dump)
	}
	defer func() { _ = out.Close() }()

	cmd := domain.Command{Name: "nm", Args: []string{"--print-size", binary}}
	if err := p.runner.Run(ctx, cmd, out, span); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSymbolDumpFailed.Error()), "binary", binary)
	}
	return nil
}

// digestOrWarn hashes path, degrading to a warning when the file cannot
// be read.
func (p *Pipeline) digestOrWarn(path string) string {
	digest, err := fileDigest(path)
	if err != nil {
		p.logger.Warn("cannot hash " + path + ": " + err.Error())
		return ""
	}
	return digest
}
