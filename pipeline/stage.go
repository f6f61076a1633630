package pipeline

import (
	"maps"
	"slices"
	"time"
)

// NoTimeout explicitly disables a timeout inherited from an ancestor. A zero
// duration means "not defined here" and defers to the parent.
const NoTimeout time.Duration = -1

// settings are the inheritable values shared by Stage and Pipeline.
type settings struct {
	workingDir   string
	env          map[string]string
	stageTimeout time.Duration
	stepTimeout  time.Duration
}

func (s settings) clone() settings {
	s.env = maps.Clone(s.env)
	return s
}

// Stage is a named unit of work holding ordered steps. The zero value is not
// useful; build stages with NewStage.
type Stage struct {
	settings
	name      string
	when      []Condition
	parallel  bool
	exitCodes []int // nil means the default {0}
	steps     []Step
}

// NewStage returns a stage named name with opts applied left to right.
func NewStage(name string, opts ...StageOption) Stage {
	s := Stage{name: name, exitCodes: []int{0}}
	return s.With(opts...)
}

// With returns a copy of s with opts applied. s itself is never modified.
func (s Stage) With(opts ...StageOption) Stage {
	c := s.clone()
	for _, opt := range opts {
		if opt != nil {
			opt.applyStage(&c)
		}
	}
	return c
}

func (s Stage) clone() Stage {
	s.settings = s.settings.clone()
	s.when = slices.Clone(s.when)
	s.exitCodes = cloneCodes(s.exitCodes)
	s.steps = slices.Clone(s.steps)
	return s
}

// cloneCodes keeps the nil/empty distinction: nil is the default set, an empty
// non-nil slice is an explicitly empty set.
func cloneCodes(codes []int) []int {
	if codes == nil {
		return nil
	}
	return append(make([]int, 0, len(codes)), codes...)
}

// Name returns the stage name.
func (s Stage) Name() string { return s.name }

// Parallel reports whether the steps run concurrently.
func (s Stage) Parallel() bool { return s.parallel }

// WorkingDir returns the directory defined on this stage, or "".
func (s Stage) WorkingDir() string { return s.workingDir }

// OwnEnv returns a copy of the variables defined on this stage only.
func (s Stage) OwnEnv() map[string]string { return maps.Clone(s.env) }

// OwnStageTimeout returns the stage timeout defined on this stage (0 if none).
func (s Stage) OwnStageTimeout() time.Duration { return s.stageTimeout }

// OwnStepTimeout returns the step timeout defined on this stage (0 if none).
func (s Stage) OwnStepTimeout() time.Duration { return s.stepTimeout }

// ExitCodes returns the stage's own acceptable exit codes.
func (s Stage) ExitCodes() []int {
	if s.exitCodes == nil {
		return []int{0}
	}
	return slices.Clone(s.exitCodes)
}

// Condition returns the stage's activation condition: the conjunction of
// every condition supplied with When, or Always if none was.
func (s Stage) Condition() Condition {
	switch len(s.when) {
	case 0:
		return Always()
	case 1:
		return s.when[0]
	default:
		return All(s.when...)
	}
}

// Steps returns the stage's steps in declared order.
func (s Stage) Steps() []Step { return slices.Clone(s.steps) }

func (s Stage) acceptsOwn(code int) bool {
	if s.exitCodes == nil {
		return code == 0
	}
	return slices.Contains(s.exitCodes, code)
}
