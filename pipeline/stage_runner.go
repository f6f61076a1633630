package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// StageOutcome is the aggregated result of one stage. Steps are always in
// declared order, whatever order they actually finished in.
type StageOutcome struct {
	Name    string
	Path    string
	Status  Status
	Success bool
	Faults  []error
	Steps   []StepResult
	Elapsed time.Duration
}

// runStage evaluates the stage's activation condition and, if it holds,
// schedules its steps inside a stage timeout scope nested in ctx.
func (r *run) runStage(ctx context.Context, sc *Scope) (out StageOutcome) {
	if r.mode == Documentation {
		return r.documentStage(sc)
	}
	st := sc.stage
	out = StageOutcome{Name: st.name, Path: sc.path}
	start := time.Now()

	defer func() {
		if v := recover(); v != nil {
			out.Status, out.Success = Failed, false
			out.Faults = append(out.Faults, recoveredFault(sc.path, v))
		}
	}()

	if !sc.evaluate(st.Condition()) {
		out.Status, out.Success = Inactive, true
		r.emit(Event{Kind: StageInactive, Path: sc.path, Depth: sc.depth, Index: -1, Status: Inactive})
		return out
	}

	r.emit(Event{Kind: StageStarted, Path: sc.path, Depth: sc.depth, Index: -1})
	defer func() {
		if v := recover(); v != nil {
			out.Status, out.Success = Failed, false
			out.Faults = append(out.Faults, recoveredFault(sc.path, v))
		}
		out.Elapsed = time.Since(start)
		var err error
		if len(out.Faults) > 0 {
			err = out.Faults[0]
		}
		r.emit(Event{
			Kind: StageFinished, Path: sc.path, Depth: sc.depth, Index: -1,
			Status: out.Status, Err: err, Elapsed: out.Elapsed,
		})
	}()

	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var own *TimeoutError
	if d := sc.StageTimeout(); d > 0 {
		own = &TimeoutError{Scope: "stage", Name: sc.path, Timeout: d}
		var cancelTimeout context.CancelFunc
		stageCtx, cancelTimeout = context.WithTimeoutCause(stageCtx, d, own)
		defer cancelTimeout()
	}

	if st.parallel {
		out.Steps = r.runParallel(stageCtx, sc)
	} else {
		out.Steps = r.runSequential(stageCtx, sc)
	}

	var failed, cancelled, skipped bool
	for _, res := range out.Steps {
		switch res.Status {
		case Failed:
			failed = true
		case Cancelled:
			cancelled = true
		case Skipped:
			skipped = true
		}
		out.Faults = append(out.Faults, res.Faults...)
	}
	// A deadline that fires after every step has finished cut nothing short.
	cutShort := cancelled || (skipped && !failed)

	switch {
	case cutShort && ctx.Err() != nil:
		out.Status = Cancelled
	case cutShort && own != nil && context.Cause(stageCtx) == error(own):
		out.Status = Failed
		out.Faults = append(out.Faults, own)
	case failed || cancelled:
		out.Status = Failed
	default:
		out.Status = Succeeded
	}
	out.Success = out.Status == Succeeded
	return out
}

// runSequential runs steps in declared order and never starts a step after
// one has failed.
func (r *run) runSequential(ctx context.Context, sc *Scope) []StepResult {
	steps := sc.stage.steps
	results := make([]StepResult, len(steps))
	stopped := false
	for i, step := range steps {
		if stopped || ctx.Err() != nil {
			results[i] = StepResult{Index: i, Name: step.Label(), Status: Skipped}
			continue
		}
		results[i] = r.runStepScoped(ctx, sc, i, step)
		if results[i].failed() {
			stopped = true
		}
	}
	return results
}

// runParallel starts every step at once. The first failure cancels the
// group's context, which stops the siblings still in flight.
func (r *run) runParallel(ctx context.Context, sc *Scope) []StepResult {
	steps := sc.stage.steps
	results := make([]StepResult, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			results[i] = r.runStepScoped(gctx, sc, i, step)
			if results[i].Status == Failed {
				return errSiblingFailed
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runStepScoped runs one step inside its own step timeout scope. Nested
// stages are bounded by their own stage scope instead.
func (r *run) runStepScoped(ctx context.Context, sc *Scope, index int, step Step) StepResult {
	if _, nested := asNested(step); nested {
		return r.executeStep(ctx, sc, index, step, nil)
	}
	d := sc.StepTimeout()
	if d <= 0 {
		return r.executeStep(ctx, sc, index, step, nil)
	}
	own := &TimeoutError{Scope: "step", Name: step.Label(), Timeout: d}
	stepCtx, cancel := context.WithTimeoutCause(ctx, d, own)
	defer cancel()
	return r.executeStep(stepCtx, sc, index, step, own)
}

// documentStage walks a stage in Documentation mode: the stage is announced,
// its condition described and its nested stages documented. No step runs.
func (r *run) documentStage(sc *Scope) StageOutcome {
	st := sc.stage
	r.emit(Event{Kind: StageStarted, Path: sc.path, Depth: sc.depth, Index: -1})
	sc.evaluate(st.Condition())
	for i, step := range st.steps {
		n, ok := asNested(step)
		if !ok {
			r.emit(Event{Kind: StepFinished, Path: sc.path, Depth: sc.depth, Index: i, Step: step.Label(), Status: Skipped})
			continue
		}
		stage := n.Stage
		r.documentStage(sc.child(&stage))
	}
	r.emit(Event{Kind: StageFinished, Path: sc.path, Depth: sc.depth, Index: -1, Status: Succeeded})
	return StageOutcome{Name: st.name, Path: sc.path, Status: Succeeded, Success: true}
}
