package pipeline

import (
	"maps"
	"time"
)

// StageOption transforms a Stage being built by NewStage or Stage.With.
// Steps are themselves StageOptions that append to the stage.
type StageOption interface {
	applyStage(*Stage)
}

// PipelineOption transforms a Pipeline being built by NewPipeline or
// Pipeline.With.
type PipelineOption interface {
	applyPipeline(*Pipeline)
}

// Setting is an inheritable setting accepted by both stages and pipelines.
type Setting func(*settings)

func (f Setting) applyStage(s *Stage)       { f(&s.settings) }
func (f Setting) applyPipeline(p *Pipeline) { f(&p.settings) }

type stageOptionFunc func(*Stage)

func (f stageOptionFunc) applyStage(s *Stage) { f(s) }

type pipelineOptionFunc func(*Pipeline)

func (f pipelineOptionFunc) applyPipeline(p *Pipeline) { f(p) }

// WorkDir sets the working directory. A relative dir is resolved by the
// executor against the process working directory.
func WorkDir(dir string) Setting {
	return func(s *settings) { s.workingDir = dir }
}

// Env sets one environment variable.
func Env(key, value string) Setting {
	return func(s *settings) {
		if s.env == nil {
			s.env = make(map[string]string)
		}
		s.env[key] = value
	}
}

// EnvMap overlays every entry of vars.
func EnvMap(vars map[string]string) Setting {
	return func(s *settings) {
		if len(vars) == 0 {
			return
		}
		if s.env == nil {
			s.env = make(map[string]string, len(vars))
		}
		maps.Copy(s.env, vars)
	}
}

// StageTimeout bounds the duration of each stage at or below this level.
func StageTimeout(d time.Duration) Setting {
	return func(s *settings) { s.stageTimeout = d }
}

// StepTimeout bounds the duration of each step at or below this level.
func StepTimeout(d time.Duration) Setting {
	return func(s *settings) { s.stepTimeout = d }
}

// Parallel makes the stage start all of its steps concurrently.
func Parallel() StageOption {
	return stageOptionFunc(func(s *Stage) { s.parallel = true })
}

// Sequential makes the stage run its steps one after another (the default).
func Sequential() StageOption {
	return stageOptionFunc(func(s *Stage) { s.parallel = false })
}

// AcceptExitCodes replaces the stage's own set of acceptable exit codes.
// Calling it with no codes yields an explicitly empty set.
func AcceptExitCodes(codes ...int) StageOption {
	return stageOptionFunc(func(s *Stage) {
		s.exitCodes = append(make([]int, 0, len(codes)), codes...)
	})
}

// When adds activation conditions. All conditions supplied across every When
// call must hold for the stage to run.
func When(conds ...Condition) StageOption {
	return stageOptionFunc(func(s *Stage) {
		for _, c := range conds {
			if c != nil {
				s.when = append(s.when, c)
			}
		}
	})
}

// Steps appends steps in order.
func Steps(steps ...Step) StageOption {
	return stageOptionFunc(func(s *Stage) {
		for _, st := range steps {
			if st != nil {
				s.steps = append(s.steps, st)
			}
		}
	})
}

// Timeout bounds the combined duration of the primary and post-stage phases.
func Timeout(d time.Duration) PipelineOption {
	return pipelineOptionFunc(func(p *Pipeline) { p.timeout = d })
}

// Args replaces the pipeline's command-line tokens.
func Args(tokens ...string) PipelineOption {
	return pipelineOptionFunc(func(p *Pipeline) {
		p.cmdArgs = append(make([]string, 0, len(tokens)), tokens...)
	})
}

// DeclareArgs records argument descriptors for documentation mode.
func DeclareArgs(args ...CmdArg) PipelineOption {
	return pipelineOptionFunc(func(p *Pipeline) { p.declared = append(p.declared, args...) })
}

// Stages appends primary stages.
func Stages(stages ...Stage) PipelineOption {
	return pipelineOptionFunc(func(p *Pipeline) { p.stages = append(p.stages, stages...) })
}

// PostStages appends post-stages, which run after the primary stages even if
// one of them failed.
func PostStages(stages ...Stage) PipelineOption {
	return pipelineOptionFunc(func(p *Pipeline) { p.postStages = append(p.postStages, stages...) })
}
