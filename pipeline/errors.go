package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrFailed is returned by Run when a stage failed without any captured
	// fault, e.g. a command exited with an unacceptable code.
	ErrFailed = errors.New("pipeline failed")

	// ErrCancelled matches every *CancelledError via errors.Is.
	ErrCancelled = errors.New("pipeline cancelled")

	// ErrInterrupted is the cancellation cause for an operator interrupt.
	// Pass it to a context.CancelCauseFunc to abort a run.
	ErrInterrupted = errors.New("interrupted")

	// ErrNoExecutor is returned by Scope.Exec when the Runner has no
	// CommandExecutor.
	ErrNoExecutor = errors.New("no command executor configured")

	// errSiblingFailed cancels the remaining steps of a parallel stage.
	errSiblingFailed = errors.New("sibling step failed")
)

// StepFault is an error or panic captured from a step body.
type StepFault struct {
	Path  string // stage path
	Index int    // step index within the stage
	Step  string // step label
	Err   error
}

func (e *StepFault) Error() string {
	return fmt.Sprintf("stage %s step %d (%s): %v", e.Path, e.Index, e.Step, e.Err)
}

func (e *StepFault) Unwrap() error { return e.Err }

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// ExitError reports a command exit code outside the acceptable set. It is
// attached to the StepFinished event but is not collected as a fault.
type ExitError struct {
	Code int
	Line string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Line, e.Code)
}

// TimeoutError is the cancellation cause when a step, stage or pipeline
// timeout elapses.
type TimeoutError struct {
	Scope   string // "step", "stage" or "pipeline"
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s", e.Scope, e.Name, e.Timeout)
}

// Is lets errors.Is(err, context.DeadlineExceeded) match timeouts.
func (e *TimeoutError) Is(target error) bool { return target == context.DeadlineExceeded }

// CancelledError is returned by Run when the run was cancelled from outside
// (interrupt or pipeline timeout). Faults collected before the cancellation
// landed are kept.
type CancelledError struct {
	Cause  error
	Faults []error
}

func (e *CancelledError) Error() string {
	if e.Cause == nil {
		return ErrCancelled.Error()
	}
	return fmt.Sprintf("%s: %v", ErrCancelled, e.Cause)
}

func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }

// AggregateError is returned by Run when one or more faults were collected.
// The first fault is the primary cause; errors.Is and errors.As look at all.
type AggregateError struct {
	Faults []error
}

func (e *AggregateError) Error() string {
	switch len(e.Faults) {
	case 0:
		return ErrFailed.Error()
	case 1:
		return fmt.Sprintf("%s: %v", ErrFailed, e.Faults[0])
	}
	msgs := make([]string, len(e.Faults))
	for i, f := range e.Faults {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%s: %d faults: %s", ErrFailed, len(e.Faults), strings.Join(msgs, "; "))
}

// Cause returns the primary fault.
func (e *AggregateError) Cause() error {
	if len(e.Faults) == 0 {
		return nil
	}
	return e.Faults[0]
}

func (e *AggregateError) Unwrap() []error { return e.Faults }

func (e *AggregateError) Is(target error) bool { return target == ErrFailed }

// IsCancelled reports whether err records a cancelled run.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// IsTimeout reports whether err carries a *TimeoutError.
func IsTimeout(err error) bool { return errors.As(err, new(*TimeoutError)) }

// Faults returns the faults carried by an error returned from Run.
func Faults(err error) []error {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Faults
	}
	var c *CancelledError
	if errors.As(err, &c) {
		return c.Faults
	}
	return nil
}
