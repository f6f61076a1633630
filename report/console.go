package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dcshock/runpipe/pipeline"
	"golang.org/x/term"
)

// ColorEnabled reports whether output to w should be colored: never when
// noColor is set or NO_COLOR is exported, otherwise only for terminals.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Console renders events as an indented transcript. It is safe for
// concurrent use; lines from parallel steps interleave but never tear.
type Console struct {
	mu sync.Mutex
	w  io.Writer
	st styles
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, theme Theme, color bool) *Console {
	return &Console{w: w, st: newStyles(lipgloss.NewRenderer(w), theme, color)}
}

// Report writes the line for e, if the event has one. Safe for concurrent use.
func (c *Console) Report(e pipeline.Event) {
	var line string
	if e.Mode == pipeline.Documentation {
		line = c.document(e)
	} else {
		line = c.execution(e)
	}
	if line == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

func (c *Console) execution(e pipeline.Event) string {
	switch e.Kind {
	case pipeline.PipelineStarted:
		return c.st.title.Render(e.Path) + c.st.dim.Render("  run "+e.RunID)
	case pipeline.PipelineFinished:
		return c.summary(e)
	case pipeline.StageStarted:
		return indent(e.Depth-1) + c.st.stage.Render("▸ "+e.Path)
	case pipeline.StageInactive:
		return indent(e.Depth-1) + c.mark(e.Status) + " " + c.st.dim.Render(e.Path+" inactive")
	case pipeline.StageFinished:
		return indent(e.Depth-1) + c.outcome(e, e.Path)
	case pipeline.StepStarted:
		return indent(e.Depth) + c.st.step.Render("$ "+e.Step)
	case pipeline.StepFinished:
		return indent(e.Depth) + c.outcome(e, e.Step)
	case pipeline.Output:
		text := c.st.output.Render(e.Text)
		if e.Step == "stderr" {
			text = c.st.stderr.Render(e.Text)
		}
		return c.st.dim.Render(e.Path+" │ ") + text
	}
	return ""
}

func (c *Console) document(e pipeline.Event) string {
	switch e.Kind {
	case pipeline.PipelineStarted:
		return c.st.title.Render(e.Path)
	case pipeline.ArgDocumented:
		return indent(1) + e.Text
	case pipeline.StageStarted:
		return indent(e.Depth-1) + c.st.stage.Render(e.Path)
	case pipeline.ConditionDescribed:
		return indent(e.Depth) + c.st.dim.Render("when "+e.Text)
	case pipeline.StepFinished:
		return indent(e.Depth) + c.st.step.Render("- "+e.Step)
	}
	return ""
}

func (c *Console) outcome(e pipeline.Event, name string) string {
	s := c.mark(e.Status) + " " + name + " " + e.Status.String()
	if e.Status != pipeline.Skipped {
		s += c.st.dim.Render(" " + round(e.Elapsed).String())
	}
	if e.Err != nil {
		s += ": " + c.st.failure.Render(e.Err.Error())
	}
	return s
}

func (c *Console) summary(e pipeline.Event) string {
	elapsed := round(e.Elapsed)
	switch e.Status {
	case pipeline.Succeeded:
		return c.st.success.Render(fmt.Sprintf("finished %s in %s", e.Path, elapsed))
	case pipeline.Cancelled:
		return c.st.warning.Render(fmt.Sprintf("cancelled %s after %s", e.Path, elapsed)) + errSuffix(e.Err)
	}
	return c.st.failure.Render(fmt.Sprintf("finished %s in %s (failed)", e.Path, elapsed)) + errSuffix(e.Err)
}

func (c *Console) mark(s pipeline.Status) string {
	switch s {
	case pipeline.Succeeded:
		return c.st.success.Render("✓")
	case pipeline.Failed:
		return c.st.failure.Render("✗")
	case pipeline.Cancelled:
		return c.st.warning.Render("⊘")
	case pipeline.Inactive:
		return c.st.dim.Render("○")
	}
	return c.st.dim.Render("-")
}

func errSuffix(err error) string {
	if err == nil {
		return ""
	}
	return ": " + err.Error()
}

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

func round(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(10 * time.Millisecond)
}
