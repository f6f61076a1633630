package pipeline

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// branchVars are consulted, in order, to find the current branch name.
var branchVars = []string{"BRANCH_NAME", "GIT_BRANCH", "GITHUB_REF_NAME", "CI_COMMIT_REF_NAME"}

// Scope is the resolved, read-only view of a stage inside a running pipeline.
// The Runner builds one Scope per stage just before running it; its parent
// link points toward the Pipeline root and is never reassigned. Every
// inheritable setting is resolved through it.
type Scope struct {
	run    *run
	parent *Scope
	pipe   *Pipeline // root only
	stage  *Stage    // nil at the root
	path   string
	depth  int

	step int        // index of the step this scope was handed to, or -1
	exit *ExitError // set by Sh when the exit code was rejected
}

func newRootScope(r *run, p *Pipeline) *Scope {
	return &Scope{run: r, pipe: p, path: p.name, step: -1}
}

func (sc *Scope) child(st *Stage) *Scope {
	path := st.name
	if sc.stage != nil {
		path = sc.path + "/" + st.name
	}
	return &Scope{run: sc.run, parent: sc, stage: st, path: path, depth: sc.depth + 1, step: -1}
}

// forStep returns a copy of sc bound to step index.
func (sc *Scope) forStep(index int) *Scope {
	c := *sc
	c.step = index
	c.exit = nil
	return &c
}

func (sc *Scope) root() *Scope {
	for s := sc; ; s = s.parent {
		if s.parent == nil {
			return s
		}
	}
}

// own returns the settings defined at this level only.
func (sc *Scope) own() settings {
	if sc.stage != nil {
		return sc.stage.settings
	}
	return sc.pipe.settings
}

// Name returns the stage name, or the pipeline name at the root.
func (sc *Scope) Name() string {
	if sc.stage != nil {
		return sc.stage.name
	}
	return sc.pipe.name
}

// Path returns the slash-separated stage path, e.g. "build/unit".
func (sc *Scope) Path() string { return sc.path }

// Depth is 0 at the pipeline root and 1 for top-level stages.
func (sc *Scope) Depth() int { return sc.depth }

// StepIndex returns the index of the step being run, or -1.
func (sc *Scope) StepIndex() int { return sc.step }

// Mode returns the run mode.
func (sc *Scope) Mode() Mode { return sc.run.mode }

// RunID returns the identifier of the current run.
func (sc *Scope) RunID() string { return sc.run.id }

// Pipeline returns the pipeline being run.
func (sc *Scope) Pipeline() Pipeline { return *sc.root().pipe }

// WorkingDir resolves the working directory: the nearest level that defines
// one wins. "" means the process working directory.
func (sc *Scope) WorkingDir() string {
	for s := sc; s != nil; s = s.parent {
		if dir := s.own().workingDir; dir != "" {
			return dir
		}
	}
	return ""
}

// StageTimeout resolves the stage timeout nearest-defined-wins; 0 means none.
func (sc *Scope) StageTimeout() time.Duration {
	return sc.resolveTimeout(func(s settings) time.Duration { return s.stageTimeout })
}

// StepTimeout resolves the step timeout nearest-defined-wins; 0 means none.
func (sc *Scope) StepTimeout() time.Duration {
	return sc.resolveTimeout(func(s settings) time.Duration { return s.stepTimeout })
}

func (sc *Scope) resolveTimeout(get func(settings) time.Duration) time.Duration {
	for s := sc; s != nil; s = s.parent {
		if d := get(s.own()); d != 0 {
			if d < 0 {
				return 0
			}
			return d
		}
	}
	return 0
}

// Env merges environment variables from the pipeline root down to this
// stage; nearer levels win on key collisions. The returned map is a copy.
func (sc *Scope) Env() map[string]string {
	var merged map[string]string
	if sc.parent != nil {
		merged = sc.parent.Env()
	} else {
		merged = make(map[string]string, len(sc.own().env))
	}
	maps.Copy(merged, sc.own().env)
	return merged
}

// Arg looks name up in the pipeline's command-line tokens. The token after
// name is its value; a trailing name yields "" with ok true.
func (sc *Scope) Arg(name string) (value string, ok bool) {
	return lookupArg(sc.root().pipe.cmdArgs, name)
}

// AcceptsExitCode reports whether code is in this stage's own set or in its
// immediate parent stage's set. Ancestors further up are not consulted.
func (sc *Scope) AcceptsExitCode(code int) bool {
	if sc.stage == nil {
		return code == 0
	}
	if sc.stage.acceptsOwn(code) {
		return true
	}
	return sc.parent != nil && sc.parent.stage != nil && sc.parent.stage.acceptsOwn(code)
}

// Branch returns the current branch name from the resolved environment,
// falling back to Runner.Branch.
func (sc *Scope) Branch() string {
	env := sc.Env()
	for _, k := range branchVars {
		if v := env[k]; v != "" {
			return v
		}
	}
	return sc.run.branch
}

// Exec runs cmdline through the Runner's CommandExecutor with this scope's
// working directory and environment and returns the exit code.
func (sc *Scope) Exec(ctx context.Context, cmdline string) (int, error) {
	if sc.run.executor == nil {
		return -1, ErrNoExecutor
	}
	cmd := Command{
		Line:  cmdline,
		Dir:   sc.WorkingDir(),
		Env:   sc.Env(),
		Label: sc.label(),
	}
	return sc.run.executor.Execute(ctx, cmd)
}

func (sc *Scope) label() string {
	if sc.step < 0 {
		return sc.path
	}
	return fmt.Sprintf("%s#%d", sc.path, sc.step)
}

func (sc *Scope) noteExit(e *ExitError) { sc.exit = e }

// evaluate gates on cond according to the run mode. In Documentation mode the
// condition is described and treated as holding without being inspected.
func (sc *Scope) evaluate(cond Condition) bool {
	if sc.run.mode == Documentation {
		sc.run.emit(Event{Kind: ConditionDescribed, Path: sc.path, Depth: sc.depth, Index: -1, Text: cond.Describe()})
		return true
	}
	return cond.Holds(sc)
}
