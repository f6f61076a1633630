//go:build !windows

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/dcshock/runpipe/config"
	"github.com/dcshock/runpipe/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

const greetYAML = `
name: greet
args:
  - long: loud
    description: shout the greeting
stages:
  - name: hello
    env:
      WHO: world
    steps:
      - echo "hello $WHO"
  - name: shout
    when:
      arg: loud
    steps: [echo HELLO]
post:
  - name: bye
    steps: [echo bye]
`

func TestRun_Succeeds(t *testing.T) {
	path := writePipeline(t, greetYAML)
	out, _, err := execute(context.Background(), "run", "--no-color", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hello#0 │ hello world")
	assert.Contains(t, out, "○ shout inactive")
	assert.Contains(t, out, "bye#0 │ bye")
	assert.Contains(t, out, "finished greet in")
}

func TestRun_PipelineArgs(t *testing.T) {
	path := writePipeline(t, greetYAML)
	out, _, err := execute(context.Background(), "run", "--no-color", "-f", path, "--", "--loud")
	require.NoError(t, err)
	assert.Contains(t, out, "shout#0 │ HELLO")
}

func TestRun_EnvFile(t *testing.T) {
	path := writePipeline(t, "name: e\nstages:\n  - name: s\n    steps: ['echo \"[$FROM_FILE]\"']\n")
	envFile := filepath.Join(t.TempDir(), "ci.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FROM_FILE=yes\n"), 0o644))

	out, _, err := execute(context.Background(), "run", "--no-color", "-f", path, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "s#0 │ [yes]")
}

func TestRun_Fails(t *testing.T) {
	path := writePipeline(t, "name: broken\nstages:\n  - name: s\n    steps: [exit 4]\n  - name: never\n    steps: [echo unreachable]\n")
	out, _, err := execute(context.Background(), "run", "--no-color", "-f", path)
	require.Error(t, err)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.NotContains(t, out, "unreachable")
	assert.Regexp(t, `finished broken in \S+ \(failed\)`, out)
}

func TestRun_TimeoutFlag(t *testing.T) {
	path := writePipeline(t, "name: slow\nstages:\n  - name: s\n    steps: [sleep 10]\n")
	start := time.Now()
	_, _, err := execute(context.Background(), "run", "--no-color", "--timeout", "100ms", "-f", path)
	require.Error(t, err)
	assert.True(t, pipeline.IsCancelled(err), "got %v", err)
	assert.True(t, pipeline.IsTimeout(err), "got %v", err)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestRun_Interrupted(t *testing.T) {
	path := writePipeline(t, "name: slow\nstages:\n  - name: s\n    steps: [sleep 10]\n")
	ctx, cancel := context.WithCancelCause(context.Background())
	time.AfterFunc(100*time.Millisecond, func() { cancel(pipeline.ErrInterrupted) })

	out, _, err := execute(ctx, "run", "--no-color", "-f", path)
	require.Error(t, err)
	assert.Equal(t, exitInterrupted, exitCode(err))
	assert.Contains(t, out, "cancelled slow after")
}

func TestCancelOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	stop := cancelOnSignal(cancel)
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("signal did not cancel the run")
	}
	assert.ErrorIs(t, context.Cause(ctx), pipeline.ErrInterrupted)
}

func TestCancelOnSignal_Stop(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	stop := cancelOnSignal(cancel)
	stop()
	stop()
	assert.NoError(t, ctx.Err())
}

func TestRun_MissingFile(t *testing.T) {
	_, _, err := execute(context.Background(), "run", "-f", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, exitFailed, exitCode(err))
}

func TestDoc(t *testing.T) {
	path := writePipeline(t, greetYAML)
	out, _, err := execute(context.Background(), "doc", "--no-color", "-f", path)
	require.NoError(t, err)
	want := "greet\n" +
		"  --loud  shout the greeting\n" +
		"hello\n" +
		"  when always\n" +
		"  - echo \"hello $WHO\"\n" +
		"shout\n" +
		"  when argument --loud is given\n" +
		"  - echo HELLO\n" +
		"bye\n" +
		"  when always\n" +
		"  - echo bye\n"
	assert.Equal(t, want, out)
}

func TestValidate(t *testing.T) {
	path := writePipeline(t, greetYAML)
	out, _, err := execute(context.Background(), "validate", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s: pipeline \"greet\" is valid (2 stages, 1 post-stages)\n", path), out)

	bad := writePipeline(t, "name: p\nstages:\n  - name: s\n    retries: 2\n")
	_, _, err = execute(context.Background(), "validate", "-f", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid), "got %v", err)
}

func TestLogLevel(t *testing.T) {
	path := writePipeline(t, greetYAML)
	_, _, err := execute(context.Background(), "validate", "--log-level", "chatty", "-f", path)
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailed, exitCode(pipeline.ErrFailed))
	assert.Equal(t, exitInterrupted, exitCode(&pipeline.CancelledError{Cause: pipeline.ErrInterrupted}))
	assert.Equal(t, exitInterrupted, exitCode(fmt.Errorf("pipeline x cancelled: %w", &pipeline.CancelledError{Cause: pipeline.ErrInterrupted})))
}
