// Package shell runs build and test commands attached to a pseudo terminal.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creack/pty"
	"github.com/dlang-tools/dci/internal/core/domain"
	"github.com/dlang-tools/dci/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner implements ports.Runner using os/exec and pty.
//
// Commands run attached to a pseudo terminal so make and the compilers keep
// their color output. The pty merges stdout and stderr into one stream; on
// hosts without a pty device commands fall back to plain pipes and the
// streams stay separate.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner. A logger may be supplied to mirror every
// output line into the structured log.
func NewRunner(logger ...ports.Logger) *Runner {
	r := &Runner{}
	if len(logger) > 0 {
		r.logger = logger[0]
	}
	return r
}

// Run executes cmd and waits for it to complete, streaming output to stdout
// and stderr as it is produced. A non-zero exit status is returned as an
// error carrying the exit code. Run is a no-op for an empty command.
func (r *Runner) Run(ctx context.Context, cmd domain.Command, stdout, stderr io.Writer) error {
	if cmd.Name == "" {
		return nil
	}

	outLog := &lineWriter{logger: r.logger}
	errLog := &lineWriter{logger: r.logger, warn: true}

	env := resolveEnvironment(os.Environ(), cmd.Env)

	proc, err := start(ctx, cmd, env,
		io.MultiWriter(outLog, stdout),
		io.MultiWriter(errLog, stderr),
		outLog, errLog,
	)
	if err != nil {
		return err
	}

	if err := proc.wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(
			zerr.Wrap(err, "command failed"),
			"exit_code", exitCode),
			"command", cmd.String())
	}

	return nil
}

// ptyAvailable reports whether the host can allocate a pseudo terminal.
// Minimal containers without a devpts mount cannot.
var ptyAvailable = sync.OnceValue(func() bool {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return false
	}
	_ = tty.Close()
	_ = ptmx.Close()
	return true
})

type process struct {
	cmd    *exec.Cmd
	ioDone <-chan struct{}

	// closers flush line buffered log writers once all output has been read.
	closers []io.Closer
}

func (p *process) wait() error {
	err := p.cmd.Wait()
	if p.ioDone != nil {
		<-p.ioDone
	}
	for _, c := range p.closers {
		_ = c.Close()
	}
	return err
}

func start(
	ctx context.Context,
	cmd domain.Command,
	env []string,
	stdout, stderr io.Writer,
	closers ...io.Closer,
) (*process, error) {
	c := newCommand(ctx, cmd, env)
	if ptyAvailable() {
		return startPty(c, stdout, closers)
	}
	return startPipes(c, stdout, stderr, closers)
}

func startPty(c *exec.Cmd, output io.Writer, closers []io.Closer) (*process, error) {
	ptmx, err := pty.Start(c)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()

		// Copy until the child exits and the pty drains. The pty merges
		// stdout and stderr, so everything arrives on the stdout side.
		_, _ = io.Copy(output, ptmx)
	}()

	return &process{cmd: c, ioDone: ioDone, closers: closers}, nil
}

func startPipes(c *exec.Cmd, stdout, stderr io.Writer, closers []io.Closer) (*process, error) {
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Start(); err != nil {
		return nil, zerr.Wrap(err, "failed to start command")
	}
	return &process{cmd: c, closers: closers}, nil
}

func newCommand(ctx context.Context, cmd domain.Command, env []string) *exec.Cmd {
	// Resolve the executable against the merged PATH rather than the
	// process PATH, so binaries from an activated toolchain are found.
	executable := cmd.Name
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // commands are assembled by the pipeline
	if len(c.Args) > 0 {
		c.Args[0] = cmd.Name
	}
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	c.Env = env

	return c
}

// lineWriter buffers raw command output and forwards complete lines to the
// structured logger. Stray \r bytes from the pty are stripped.
type lineWriter struct {
	logger ports.Logger
	warn   bool
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (n int, err error) {
	if w.logger == nil {
		return len(p), nil
	}

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *lineWriter) Close() error {
	if w.logger != nil && len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.warn {
		w.logger.Warn(msg)
	} else {
		w.logger.Info(msg)
	}
}

// resolveEnvironment merges the inherited environment with per command
// overrides. Overrides win over inherited values, and within the override
// list later entries win. The original entry order is preserved.
func resolveEnvironment(sysEnv, overrides []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	keys := make([]string, 0, len(sysEnv)+len(overrides))

	set := func(entry string) {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			return
		}
		if _, seen := envMap[k]; !seen {
			keys = append(keys, k)
		}
		envMap[k] = v
	}

	for _, entry := range sysEnv {
		set(entry)
	}
	for _, entry := range overrides {
		set(entry)
	}

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// envValue returns the value of key in an environment entry list, or ""
// when the key is absent.
func envValue(env []string, key string) string {
	prefix := key + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return strings.TrimPrefix(entry, prefix)
		}
	}
	return ""
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	path := envValue(env, "PATH")
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
