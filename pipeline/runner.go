package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Runner runs pipelines. The zero value runs in Execution mode with no
// reporter; Sh steps need an Executor.
type Runner struct {
	Executor CommandExecutor
	Reporter Reporter
	Mode     Mode

	// Branch is used by Branch conditions when no branch variable is set in
	// the resolved environment.
	Branch string

	// RunID identifies the run on every event. If empty, a new UUID is
	// generated per run.
	RunID string
}

// Result is the terminal outcome of a run. Status is exactly one of
// Succeeded, Cancelled or Failed.
type Result struct {
	RunID      string
	Name       string
	Mode       Mode
	Status     Status
	Faults     []error
	Stages     []StageOutcome // primary stages that were started
	PostStages []StageOutcome // post-stages that were started
	Elapsed    time.Duration
}

// run is the state shared by every coordinator of a single Run call.
type run struct {
	id       string
	mode     Mode
	executor CommandExecutor
	reporter Reporter
	branch   string
}

func (r *run) emit(e Event) {
	if r.reporter == nil {
		return
	}
	e.RunID = r.id
	e.Mode = r.mode
	r.reporter.Report(e)
}

// Run executes p: primary stages fail-fast, then every post-stage unless the
// run was cancelled. The pipeline timeout bounds both phases. Cancelling ctx
// (e.g. with ErrInterrupted as the cause) aborts the run as Cancelled.
//
// The error is nil on success, a *CancelledError if the run was cancelled, an
// *AggregateError if faults were collected, and ErrFailed otherwise.
func (rn *Runner) Run(ctx context.Context, p Pipeline) (res Result, err error) {
	r := &run{id: rn.RunID, mode: rn.Mode, executor: rn.Executor, reporter: rn.Reporter, branch: rn.Branch}
	if r.id == "" {
		r.id = uuid.New().String()
	}
	res = Result{RunID: r.id, Name: p.name, Mode: r.mode}
	start := time.Now()
	r.emit(Event{Kind: PipelineStarted, Path: p.name, Index: -1})
	defer func() {
		res.Elapsed = time.Since(start)
		r.emit(Event{Kind: PipelineFinished, Path: p.name, Index: -1, Status: res.Status, Err: err, Elapsed: res.Elapsed})
	}()

	root := newRootScope(r, &p)
	if r.mode == Documentation {
		for _, a := range p.declared {
			r.emit(Event{Kind: ArgDocumented, Path: p.name, Index: -1, Text: a.String()})
		}
		res.Stages = r.documentPhase(root, p.stages)
		res.PostStages = r.documentPhase(root, p.postStages)
		return res, nil
	}

	runCtx := ctx
	if d := p.timeout; d > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeoutCause(ctx, d, &TimeoutError{Scope: "pipeline", Name: p.name, Timeout: d})
		defer cancel()
	}

	var primaryOK, postOK, cut, postCut bool
	res.Stages, primaryOK, cut = r.runPhase(runCtx, root, p.stages, true)
	postOK = true
	if runCtx.Err() == nil {
		res.PostStages, postOK, postCut = r.runPhase(runCtx, root, p.postStages, false)
		cut = cut || postCut
	} else if len(p.postStages) > 0 {
		cut = true
	}
	for _, o := range res.Stages {
		res.Faults = append(res.Faults, o.Faults...)
	}
	for _, o := range res.PostStages {
		res.Faults = append(res.Faults, o.Faults...)
	}

	switch {
	case cut && runCtx.Err() != nil:
		res.Status = Cancelled
		return res, &CancelledError{Cause: context.Cause(runCtx), Faults: res.Faults}
	case len(res.Faults) > 0:
		res.Status = Failed
		return res, &AggregateError{Faults: res.Faults}
	case !primaryOK || !postOK:
		res.Status = Failed
		return res, ErrFailed
	}
	res.Status = Succeeded
	return res, nil
}

// runPhase runs stages in order. With failFast the first failing stage ends
// the phase and the stages after it are never started. cut reports whether
// cancellation stopped a stage or kept one from starting.
func (r *run) runPhase(ctx context.Context, root *Scope, stages []Stage, failFast bool) (outs []StageOutcome, ok, cut bool) {
	ok = true
	for i := range stages {
		if ctx.Err() != nil {
			cut = true
			break
		}
		out := r.runStage(ctx, root.child(&stages[i]))
		outs = append(outs, out)
		if out.Status == Cancelled {
			cut = true
		}
		if !out.Success {
			ok = false
			if failFast {
				break
			}
		}
	}
	return outs, ok, cut
}

func (r *run) documentPhase(root *Scope, stages []Stage) []StageOutcome {
	outs := make([]StageOutcome, 0, len(stages))
	for i := range stages {
		outs = append(outs, r.documentStage(root.child(&stages[i])))
	}
	return outs
}
