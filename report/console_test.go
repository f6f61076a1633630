package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dcshock/runpipe/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainConsole() (*Console, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewConsole(buf, DarkTheme, false), buf
}

type fixedExecutor map[string]int

func (f fixedExecutor) Execute(_ context.Context, cmd pipeline.Command) (int, error) {
	return f[cmd.Line], nil
}

func demoPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline("ci", pipeline.Environment{},
		pipeline.DeclareArgs(pipeline.CmdArg{Long: "release", Short: "r", Description: "cut a release"}),
		pipeline.Stages(
			pipeline.NewStage("build", pipeline.Sh("make")),
			pipeline.NewStage("publish", pipeline.When(pipeline.EnvSet("TOKEN")), pipeline.Sh("make publish")),
		),
	)
}

func TestConsole_Execution(t *testing.T) {
	c, buf := plainConsole()
	r := &pipeline.Runner{Executor: fixedExecutor{}, Reporter: c, RunID: "run-1"}
	_, err := r.Run(context.Background(), demoPipeline())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "ci  run run-1", lines[0])
	assert.Equal(t, "▸ build", lines[1])
	assert.Equal(t, "  $ make", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "  ✓ make succeeded "), lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "✓ build succeeded "), lines[4])
	assert.Equal(t, "○ publish inactive", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "finished ci in "), lines[6])
}

func TestConsole_Documentation(t *testing.T) {
	c, buf := plainConsole()
	r := &pipeline.Runner{Reporter: c, Mode: pipeline.Documentation}
	_, err := r.Run(context.Background(), demoPipeline())
	require.NoError(t, err)

	want := strings.Join([]string{
		"ci",
		"  --release, -r  cut a release",
		"build",
		"  when always",
		"  - make",
		"publish",
		"  when env TOKEN is set",
		"  - make publish",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestConsole_FailureAndCancellation(t *testing.T) {
	c, buf := plainConsole()
	c.Report(pipeline.Event{Kind: pipeline.StepFinished, Depth: 1, Index: 0, Step: "make", Status: pipeline.Failed,
		Err: errors.New("boom"), Elapsed: 1500 * time.Millisecond})
	c.Report(pipeline.Event{Kind: pipeline.StepFinished, Depth: 1, Index: 1, Step: "lint", Status: pipeline.Skipped})
	c.Report(pipeline.Event{Kind: pipeline.PipelineFinished, Path: "ci", Index: -1, Status: pipeline.Cancelled,
		Err: pipeline.ErrInterrupted, Elapsed: 2 * time.Second})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ✗ make failed 1.5s: boom", lines[0])
	assert.Equal(t, "  - lint skipped", lines[1])
	assert.Equal(t, "cancelled ci after 2s: interrupted", lines[2])
}

func TestConsole_FailedRunSummary(t *testing.T) {
	c, buf := plainConsole()
	c.Report(pipeline.Event{Kind: pipeline.PipelineFinished, Path: "ci", Index: -1, Status: pipeline.Failed,
		Err: pipeline.ErrFailed, Elapsed: 3 * time.Second})
	assert.Equal(t, "finished ci in 3s (failed): "+pipeline.ErrFailed.Error()+"\n", buf.String())
}

func TestConsole_Output(t *testing.T) {
	c, buf := plainConsole()
	c.Report(pipeline.Event{Kind: pipeline.Output, Path: "build#0", Index: -1, Step: "stdout", Text: "compiling"})
	assert.Equal(t, "build#0 │ compiling\n", buf.String())
}

func TestConsole_ConcurrentLinesDoNotTear(t *testing.T) {
	c, buf := plainConsole()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Report(pipeline.Event{Kind: pipeline.Output, Path: "p#0", Index: -1, Step: "stdout", Text: "xxxxxxxx"})
			}
		}()
	}
	wg.Wait()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, "p#0 │ xxxxxxxx", line)
	}
}

func TestColorEnabled(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}, false))
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(&bytes.Buffer{}, false))
}

func TestDetectTheme(t *testing.T) {
	t.Setenv("RUNPIPE_THEME", "")
	t.Setenv("COLORFGBG", "")
	assert.Equal(t, "light", DetectTheme("LIGHT").Name)
	assert.Equal(t, "dark", DetectTheme("").Name)

	t.Setenv("RUNPIPE_THEME", "light")
	assert.Equal(t, "light", DetectTheme("").Name)
	assert.Equal(t, "dark", DetectTheme("dark").Name)

	t.Setenv("RUNPIPE_THEME", "")
	t.Setenv("COLORFGBG", "0;15")
	assert.Equal(t, "light", DetectTheme("").Name)
}
