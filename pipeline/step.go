package pipeline

import "context"

// Step is a single unit within a stage: a CommandStep or a NestedStage.
// Steps are also StageOptions, so they can be passed straight to NewStage.
type Step interface {
	StageOption
	// Label names the step in events and faults.
	Label() string
	isStep()
}

// Action is the body of a CommandStep. It returns true on success. Returning
// (false, nil) is a plain failure such as an unacceptable exit code; a
// non-nil error is captured as a fault.
type Action func(ctx context.Context, sc *Scope, index int) (bool, error)

// FuncAction is the body of a user function step; a nil error is success.
type FuncAction func(ctx context.Context, sc *Scope) error

// CommandStep runs an Action.
type CommandStep struct {
	Name   string
	Action Action
}

// Label returns the step name.
func (c CommandStep) Label() string { return c.Name }
func (CommandStep) isStep()         {}

func (c CommandStep) applyStage(s *Stage) { s.steps = append(s.steps, c) }

// NestedStage runs a full Stage as one step of its enclosing stage.
type NestedStage struct {
	Stage Stage
}

// Label returns the nested stage name.
func (n NestedStage) Label() string { return n.Stage.Name() }
func (NestedStage) isStep()         {}

func (n NestedStage) applyStage(s *Stage) { s.steps = append(s.steps, n) }

func asNested(step Step) (NestedStage, bool) {
	switch n := step.(type) {
	case NestedStage:
		return n, true
	case *NestedStage:
		if n != nil {
			return *n, true
		}
	}
	return NestedStage{}, false
}

// Do returns a command step running action.
func Do(name string, action Action) CommandStep {
	return CommandStep{Name: name, Action: action}
}

// Func returns a command step running fn; it succeeds iff fn returns nil.
func Func(name string, fn FuncAction) CommandStep {
	return CommandStep{Name: name, Action: func(ctx context.Context, sc *Scope, _ int) (bool, error) {
		if err := fn(ctx, sc); err != nil {
			return false, err
		}
		return true, nil
	}}
}

// Sh returns a command step that runs cmdline through the Runner's
// CommandExecutor in the stage's resolved working directory and environment.
// The step succeeds iff the exit code is acceptable for the stage.
func Sh(cmdline string) CommandStep {
	return CommandStep{Name: cmdline, Action: func(ctx context.Context, sc *Scope, _ int) (bool, error) {
		code, err := sc.Exec(ctx, cmdline)
		if err != nil {
			return false, err
		}
		if !sc.AcceptsExitCode(code) {
			sc.noteExit(&ExitError{Code: code, Line: cmdline})
			return false, nil
		}
		return true, nil
	}}
}

// Nest returns a step that runs stage inside the enclosing stage.
func Nest(stage Stage) NestedStage {
	return NestedStage{Stage: stage}
}
