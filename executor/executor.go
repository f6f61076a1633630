package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/dcshock/runpipe/pipeline"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("package", "executor")

// DefaultKillGrace is how long a cancelled process group gets between
// SIGTERM and SIGKILL.
const DefaultKillGrace = 5 * time.Second

// Executor implements pipeline.CommandExecutor with local processes.
type Executor struct {
	// Shell is the interpreter and its flags; the command line is appended
	// as the last argument. Defaults to sh -c (cmd /C on Windows).
	Shell []string

	// Reporter receives one Output event per line of stdout and stderr.
	Reporter pipeline.Reporter

	// KillGrace overrides DefaultKillGrace when positive.
	KillGrace time.Duration
}

// New returns an Executor streaming output to rep.
func New(rep pipeline.Reporter) *Executor {
	return &Executor{Reporter: rep}
}

// Execute runs cmd.Line and returns its exit code. A non-zero exit is not an
// error. If ctx is cancelled the process group is terminated and the
// context's cause is returned.
func (e *Executor) Execute(ctx context.Context, cmd pipeline.Command) (int, error) {
	shell := e.Shell
	if len(shell) == 0 {
		shell = defaultShell
	}
	args := append(append([]string{}, shell[1:]...), cmd.Line)
	c := exec.CommandContext(ctx, shell[0], args...)
	c.Dir = cmd.Dir
	c.Env = environ(cmd.Env)
	c.WaitDelay = e.killGrace()
	setProcessGroup(c)

	stdout := e.lineWriter(cmd.Label, "stdout")
	stderr := e.lineWriter(cmd.Label, "stderr")
	c.Stdout, c.Stderr = stdout, stderr

	log := logger.WithFields(logrus.Fields{"label": cmd.Label, "dir": cmd.Dir})
	log.WithField("command", cmd.Line).Debug("starting command")
	start := time.Now()
	if err := c.Start(); err != nil {
		return -1, fmt.Errorf("exec %q: start: %w", cmd.Line, err)
	}
	waitErr := c.Wait()
	stdout.flush()
	stderr.flush()

	if ctx.Err() != nil {
		killProcessGroup(c)
		log.WithField("elapsed", time.Since(start)).Debug("command cancelled")
		return -1, context.Cause(ctx)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		log.WithField("elapsed", time.Since(start)).Debug("command finished")
		return 0, nil
	case errors.As(waitErr, &exitErr):
		code := exitErr.ExitCode()
		log.WithFields(logrus.Fields{"elapsed": time.Since(start), "exit_code": code}).Debug("command exited")
		return code, nil
	default:
		return -1, fmt.Errorf("exec %q: %w", cmd.Line, waitErr)
	}
}

func (e *Executor) killGrace() time.Duration {
	if e.KillGrace > 0 {
		return e.KillGrace
	}
	return DefaultKillGrace
}

func (e *Executor) lineWriter(label, stream string) *lineWriter {
	return &lineWriter{emit: func(line string) {
		if e.Reporter == nil {
			return
		}
		e.Reporter.Report(pipeline.Event{
			Kind:  pipeline.Output,
			Path:  label,
			Index: -1,
			Step:  stream,
			Text:  line,
		})
	}}
}

// lineWriter splits what a process writes into lines. os/exec copies each
// stream from a single goroutine, so no locking is needed.
type lineWriter struct {
	emit func(string)
	buf  bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := w.buf.Next(i + 1)
		w.emit(strings.TrimSuffix(string(line[:i]), "\r"))
	}
	return len(p), nil
}

// flush emits a final line that had no trailing newline.
func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

// environ renders env as sorted KEY=value pairs so runs are reproducible.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
