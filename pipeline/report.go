package pipeline

import (
	"context"
	"time"
)

// Mode selects between running the pipeline and documenting it.
type Mode int

const (
	// Execution evaluates conditions and runs steps.
	Execution Mode = iota
	// Documentation describes every condition, treats it as holding, and
	// runs nothing.
	Documentation
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	if m == Documentation {
		return "documentation"
	}
	return "execution"
}

// Status is the terminal state of a step, a stage or a whole run.
type Status int

const (
	Succeeded Status = iota
	Failed
	Cancelled
	Skipped  // never started because an earlier sequential step failed
	Inactive // activation condition did not hold
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Skipped:
		return "skipped"
	case Inactive:
		return "inactive"
	}
	return "unknown"
}

// EventKind identifies a lifecycle event.
type EventKind int

const (
	PipelineStarted EventKind = iota
	PipelineFinished
	StageStarted
	StageInactive
	StageFinished
	StepStarted
	StepFinished
	ConditionDescribed
	ArgDocumented
	Output
)

// String returns the event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case PipelineStarted:
		return "pipeline-started"
	case PipelineFinished:
		return "pipeline-finished"
	case StageStarted:
		return "stage-started"
	case StageInactive:
		return "stage-inactive"
	case StageFinished:
		return "stage-finished"
	case StepStarted:
		return "step-started"
	case StepFinished:
		return "step-finished"
	case ConditionDescribed:
		return "condition"
	case ArgDocumented:
		return "argument"
	case Output:
		return "output"
	}
	return "unknown"
}

// Event is a semantic lifecycle event. The runner never formats output; it
// only emits events for a Reporter to render.
type Event struct {
	Kind    EventKind
	RunID   string
	Mode    Mode
	Path    string // stage path, or pipeline name for pipeline events
	Depth   int    // 0 for pipeline events, 1 for top-level stages
	Index   int    // step index, -1 when not a step event
	Step    string // step label
	Status  Status
	Err     error
	Elapsed time.Duration
	Text    string // condition description, argument usage or output line
}

// Reporter receives lifecycle events. Report may be called concurrently from
// the steps of a parallel stage.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// MultiReporter fans every event out to each non-nil reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	list := make([]Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			list = append(list, r)
		}
	}
	return ReporterFunc(func(e Event) {
		for _, r := range list {
			r.Report(e)
		}
	})
}

// Command is one command-line invocation handed to a CommandExecutor.
type Command struct {
	Line  string
	Dir   string            // resolved working directory; "" for the process default
	Env   map[string]string // resolved, merged environment
	Label string            // prefix for output lines, e.g. "build/unit#2"
}

// CommandExecutor runs external commands. Execute blocks until the process
// exits and returns its exit code; output has been streamed by then. On
// context cancellation the process must be terminated and its resources
// released before Execute returns.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd Command) (exitCode int, err error)
}
