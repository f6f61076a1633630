package pipeline

import (
	"reflect"
	"runtime"
	"testing"
	"time"
)

// chain builds the scope chain pipeline -> stages[0] -> stages[1] -> ... and
// returns the innermost scope.
func chain(r *run, p Pipeline, stages ...Stage) *Scope {
	sc := newRootScope(r, &p)
	for i := range stages {
		sc = sc.child(&stages[i])
	}
	return sc
}

func TestScope_WorkingDir_NearestWins(t *testing.T) {
	p := NewPipeline("p", emptyEnv(), WorkDir("/a"))
	leaf := chain(&run{}, p, NewStage("middle", WorkDir("/b")), NewStage("leaf"))
	if got := leaf.WorkingDir(); got != "/b" {
		t.Errorf("WorkingDir: got %q, want /b", got)
	}
}

func TestScope_WorkingDir_Unset(t *testing.T) {
	leaf := chain(&run{}, NewPipeline("p", emptyEnv()), NewStage("s"))
	if got := leaf.WorkingDir(); got != "" {
		t.Errorf("WorkingDir: got %q, want empty", got)
	}
}

func TestScope_WorkingDir_RelativeIsNotJoined(t *testing.T) {
	p := NewPipeline("p", emptyEnv(), WorkDir("/a"))
	leaf := chain(&run{}, p, NewStage("middle", WorkDir("b")), NewStage("leaf"))
	if got := leaf.WorkingDir(); got != "b" {
		t.Errorf("WorkingDir: got %q, want %q", got, "b")
	}
}

func TestScope_Env_AdditiveMerge(t *testing.T) {
	p := NewPipeline("p", Environment{Vars: map[string]string{"FOO": "1"}})
	sc := chain(&run{}, p, NewStage("s", Env("FOO", "2"), Env("BAR", "3")))
	want := map[string]string{"FOO": "2", "BAR": "3"}
	if got := sc.Env(); !reflect.DeepEqual(got, want) {
		t.Errorf("Env: got %v, want %v", got, want)
	}
}

func TestScope_Env_WholeChain(t *testing.T) {
	p := NewPipeline("p", Environment{Vars: map[string]string{"ROOT": "r", "X": "p"}})
	sc := chain(&run{}, p,
		NewStage("a", EnvMap(map[string]string{"A": "a", "X": "a"})),
		NewStage("b", Env("B", "b")),
	)
	want := map[string]string{"ROOT": "r", "X": "a", "A": "a", "B": "b"}
	got := sc.Env()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Env: got %v, want %v", got, want)
	}
	got["ROOT"] = "mutated"
	if sc.Env()["ROOT"] != "r" {
		t.Error("Env must return a copy")
	}
}

func TestScope_Timeouts(t *testing.T) {
	p := NewPipeline("p", emptyEnv(), StageTimeout(time.Hour), StepTimeout(time.Minute))
	sc := chain(&run{}, p, NewStage("a", StepTimeout(time.Second)), NewStage("b"))
	if got := sc.StageTimeout(); got != time.Hour {
		t.Errorf("StageTimeout: got %v", got)
	}
	if got := sc.StepTimeout(); got != time.Second {
		t.Errorf("StepTimeout: got %v", got)
	}

	none := chain(&run{}, NewPipeline("p", emptyEnv()), NewStage("s"))
	if none.StageTimeout() != 0 || none.StepTimeout() != 0 {
		t.Error("undefined timeouts should resolve to no timeout")
	}

	disabled := chain(&run{}, p, NewStage("s", StageTimeout(NoTimeout)))
	if got := disabled.StageTimeout(); got != 0 {
		t.Errorf("NoTimeout should stop inheritance, got %v", got)
	}
}

func TestScope_AcceptsExitCode_OneLevel(t *testing.T) {
	p := NewPipeline("p", emptyEnv())
	grandparent := NewStage("gp", AcceptExitCodes(3))
	parent := NewStage("parent", AcceptExitCodes(0, 2))
	leaf := NewStage("leaf", AcceptExitCodes())
	sc := chain(&run{}, p, grandparent, parent, leaf)

	if !sc.AcceptsExitCode(2) {
		t.Error("exit code 2 should be accepted via the parent")
	}
	if !sc.AcceptsExitCode(0) {
		t.Error("exit code 0 should be accepted via the parent")
	}
	if sc.AcceptsExitCode(3) {
		t.Error("grandparent's exit codes must not be consulted")
	}
}

func TestScope_AcceptsExitCode_Defaults(t *testing.T) {
	sc := chain(&run{}, NewPipeline("p", emptyEnv()), NewStage("top"))
	if !sc.AcceptsExitCode(0) || sc.AcceptsExitCode(1) {
		t.Error("default set should be {0}")
	}
	nested := chain(&run{}, NewPipeline("p", emptyEnv()), NewStage("parent"), NewStage("leaf", AcceptExitCodes(1)))
	if !nested.AcceptsExitCode(0) || !nested.AcceptsExitCode(1) || nested.AcceptsExitCode(2) {
		t.Error("leaf {1} plus default parent {0}")
	}
}

func TestScope_Arg(t *testing.T) {
	p := NewPipeline("p", Environment{Args: []string{"--env", "prod", "--dry-run"}})
	sc := chain(&run{}, p, NewStage("a"), NewStage("b"))

	if v, ok := sc.Arg("--env"); !ok || v != "prod" {
		t.Errorf("--env: got %q %v", v, ok)
	}
	if v, ok := sc.Arg("--dry-run"); !ok || v != "" {
		t.Errorf("--dry-run: got %q %v", v, ok)
	}
	if _, ok := sc.Arg("--missing"); ok {
		t.Error("--missing should not resolve")
	}
}

func TestScope_Branch(t *testing.T) {
	p := NewPipeline("p", Environment{Vars: map[string]string{"GIT_BRANCH": "feature/x"}})
	if got := chain(&run{}, p, NewStage("s")).Branch(); got != "feature/x" {
		t.Errorf("Branch from env: got %q", got)
	}
	fallback := chain(&run{branch: "main"}, NewPipeline("p", emptyEnv()), NewStage("s"))
	if got := fallback.Branch(); got != "main" {
		t.Errorf("Branch fallback: got %q", got)
	}
}

func TestScope_Path(t *testing.T) {
	sc := chain(&run{}, NewPipeline("ci", emptyEnv()), NewStage("build"), NewStage("unit"))
	if sc.Path() != "build/unit" || sc.Depth() != 2 || sc.Name() != "unit" {
		t.Errorf("path %q depth %d name %q", sc.Path(), sc.Depth(), sc.Name())
	}
}

func TestConditions(t *testing.T) {
	release := CmdArg{Long: "release", Short: "r"}
	p := NewPipeline("p", Environment{
		Vars: map[string]string{"CI": "true", "BRANCH_NAME": "release/1.2"},
		Args: []string{"-r", "beta"},
	})
	sc := chain(&run{}, p, NewStage("s"))

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"always", Always(), true},
		{"never", Never(), false},
		{"env set", EnvSet("CI"), true},
		{"env unset", EnvSet("NOPE"), false},
		{"env equals", EnvEquals("CI", "true"), true},
		{"env differs", EnvEquals("CI", "false"), false},
		{"arg short form", ArgSet(release), true},
		{"arg value", ArgEquals(release, "beta"), true},
		{"arg other value", ArgEquals(release, "stable"), false},
		{"branch glob", Branch("main", "release/*"), true},
		{"branch miss", Branch("main"), false},
		{"platform", Platform(runtime.GOOS), true},
		{"platform miss", Platform("plan9-never"), false},
		{"all", All(Always(), EnvSet("CI")), true},
		{"all fails", All(Always(), Never()), false},
		{"all empty", All(), true},
		{"any", Any(Never(), EnvSet("CI")), true},
		{"any empty", Any(), false},
		{"not", Not(Never()), true},
		{"check", Check("custom", func(sc *Scope) bool { return sc.Name() == "s" }), true},
	}
	for _, c := range cases {
		if got := c.cond.Holds(sc); got != c.want {
			t.Errorf("%s (%s): got %v, want %v", c.name, c.cond.Describe(), got, c.want)
		}
	}
}

func TestCondition_DocumentationModeDoesNotInspect(t *testing.T) {
	rep := &recordingReporter{}
	inspected := false
	cond := Check("inspects", func(*Scope) bool { inspected = true; return false })
	sc := chain(&run{mode: Documentation, reporter: rep}, NewPipeline("p", emptyEnv()), NewStage("s"))
	if !sc.evaluate(cond) {
		t.Error("documentation mode should treat conditions as holding")
	}
	if inspected {
		t.Error("documentation mode must not evaluate the condition")
	}
	if got := rep.kinds(ConditionDescribed); len(got) != 1 || got[0].Text != "inspects" {
		t.Errorf("events: %+v", got)
	}
}

func TestCmdArg_String(t *testing.T) {
	a := CmdArg{Long: "target", Short: "t", Values: []string{"dev", "prod"}, Description: "deploy target"}
	if got := a.String(); got != "--target, -t <dev|prod>  deploy target" {
		t.Errorf("String: got %q", got)
	}
}

func TestStage_WithDoesNotMutate(t *testing.T) {
	base := NewStage("s", Env("A", "1"), Noop("one"))
	derived := base.With(Env("A", "2"), Noop("two"), AcceptExitCodes(1))
	if base.OwnEnv()["A"] != "1" || len(base.Steps()) != 1 || !reflect.DeepEqual(base.ExitCodes(), []int{0}) {
		t.Errorf("base changed: env %v steps %d codes %v", base.OwnEnv(), len(base.Steps()), base.ExitCodes())
	}
	if derived.OwnEnv()["A"] != "2" || len(derived.Steps()) != 2 || !reflect.DeepEqual(derived.ExitCodes(), []int{1}) {
		t.Errorf("derived: env %v steps %d codes %v", derived.OwnEnv(), len(derived.Steps()), derived.ExitCodes())
	}
}

func TestPipeline_WithDoesNotMutate(t *testing.T) {
	env := Environment{Vars: map[string]string{"A": "1"}, Args: []string{"x"}}
	base := NewPipeline("p", env, Stages(NewStage("one")))
	env.Vars["A"] = "changed"
	derived := base.With(Stages(NewStage("two")), Env("A", "2"), Args("y"))
	if base.Env()["A"] != "1" || len(base.Stages()) != 1 || base.CmdArgs()[0] != "x" {
		t.Errorf("base changed: %v %d %v", base.Env(), len(base.Stages()), base.CmdArgs())
	}
	if derived.Env()["A"] != "2" || len(derived.Stages()) != 2 || derived.CmdArgs()[0] != "y" {
		t.Errorf("derived: %v %d %v", derived.Env(), len(derived.Stages()), derived.CmdArgs())
	}
}
