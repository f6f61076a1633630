package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StepResult is the outcome of one step. Nested is set for NestedStage steps.
type StepResult struct {
	Index   int
	Name    string
	Status  Status
	Err     error   // fault, *ExitError or cancellation cause; nil on success
	Faults  []error // captured faults; a nested stage may carry several
	Elapsed time.Duration
	Nested  *StageOutcome
}

func (r StepResult) failed() bool { return r.Status == Failed || r.Status == Cancelled }

// executeStep runs one step and turns its outcome into a StepResult. Errors
// and panics raised by the step body are captured here and never propagate.
// own is the step's own timeout cause, if a step timeout applies.
func (r *run) executeStep(ctx context.Context, sc *Scope, index int, step Step, own *TimeoutError) (res StepResult) {
	if n, ok := asNested(step); ok {
		return r.executeNested(ctx, sc, index, n)
	}
	var cs CommandStep
	switch s := step.(type) {
	case CommandStep:
		cs = s
	case *CommandStep:
		if s != nil {
			cs = *s
		}
	}
	res = StepResult{Index: index, Name: cs.Name}
	r.emit(Event{Kind: StepStarted, Path: sc.path, Depth: sc.depth, Index: index, Step: res.Name})
	start := time.Now()

	defer func() {
		if v := recover(); v != nil {
			fault := &StepFault{Path: sc.path, Index: index, Step: res.Name, Err: &PanicError{Value: v}}
			res.Status, res.Err, res.Faults = Failed, fault, []error{fault}
		}
		res.Elapsed = time.Since(start)
		r.emit(Event{
			Kind: StepFinished, Path: sc.path, Depth: sc.depth, Index: index, Step: res.Name,
			Status: res.Status, Err: res.Err, Elapsed: res.Elapsed,
		})
	}()

	if cs.Action == nil {
		fault := &StepFault{Path: sc.path, Index: index, Step: res.Name, Err: errors.New("step has no action")}
		res.Status, res.Err, res.Faults = Failed, fault, []error{fault}
		return res
	}

	ss := sc.forStep(index)
	ok, err := cs.Action(ctx, ss, index)
	switch {
	case ok && err == nil:
		res.Status = Succeeded
	case ctx.Err() != nil && (err == nil || isCancellation(ctx, err)):
		res.Status, res.Err, res.Faults = classifyCancellation(ctx, sc, index, res.Name, own)
	case err != nil:
		fault := &StepFault{Path: sc.path, Index: index, Step: res.Name, Err: err}
		res.Status, res.Err, res.Faults = Failed, fault, []error{fault}
	default:
		res.Status = Failed
		if ss.exit != nil {
			res.Err = ss.exit
		}
	}
	return res
}

func (r *run) executeNested(ctx context.Context, sc *Scope, index int, n NestedStage) (res StepResult) {
	res = StepResult{Index: index, Name: n.Label()}
	defer func() {
		if v := recover(); v != nil {
			fault := &StepFault{Path: sc.path, Index: index, Step: res.Name, Err: &PanicError{Value: v}}
			res.Status, res.Err, res.Faults = Failed, fault, []error{fault}
		}
	}()
	stage := n.Stage
	out := r.runStage(ctx, sc.child(&stage))
	res.Nested = &out
	res.Elapsed = out.Elapsed
	res.Faults = out.Faults
	switch out.Status {
	case Inactive, Succeeded:
		res.Status = Succeeded
	case Cancelled:
		res.Status = Cancelled
		res.Err = context.Cause(ctx)
	default:
		res.Status = Failed
		if len(out.Faults) > 0 {
			res.Err = out.Faults[0]
		}
	}
	return res
}

// classifyCancellation decides what a step stopped by its context reports.
// Only the step's own timeout is a fault; anything cancelling it from above
// (sibling failure, stage timeout, interrupt) is reported by whoever owns it.
func classifyCancellation(ctx context.Context, sc *Scope, index int, name string, own *TimeoutError) (Status, error, []error) {
	cause := context.Cause(ctx)
	if own != nil && cause == error(own) {
		fault := &StepFault{Path: sc.path, Index: index, Step: name, Err: own}
		return Failed, fault, []error{fault}
	}
	return Cancelled, cause, nil
}

func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Cause(ctx))
}

func recoveredFault(path string, v any) error {
	return fmt.Errorf("stage %s: %w", path, &PanicError{Value: v})
}
