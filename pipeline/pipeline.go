package pipeline

import (
	"maps"
	"os"
	"slices"
	"strings"
	"time"
)

// Environment is an immutable snapshot of process environment variables and
// the raw command-line tokens, taken once when a Pipeline is constructed.
type Environment struct {
	Vars map[string]string
	Args []string
}

// ProcessEnvironment snapshots os.Environ and os.Args[1:].
func ProcessEnvironment() Environment {
	return Environment{Vars: EnvironToMap(os.Environ()), Args: slices.Clone(os.Args[1:])}
}

// EnvironToMap converts "KEY=value" pairs into a map. Later entries win.
func EnvironToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Pipeline is the top-level container of stages, post-stages and the
// pipeline-wide settings every stage inherits from.
type Pipeline struct {
	settings
	name       string
	cmdArgs    []string
	timeout    time.Duration
	declared   []CmdArg
	stages     []Stage
	postStages []Stage
}

// NewPipeline returns a pipeline seeded with env's variables and argument
// tokens, with opts applied left to right.
func NewPipeline(name string, env Environment, opts ...PipelineOption) Pipeline {
	p := Pipeline{
		settings: settings{env: maps.Clone(env.Vars)},
		name:     name,
		cmdArgs:  slices.Clone(env.Args),
	}
	return p.With(opts...)
}

// With returns a copy of p with opts applied. p itself is never modified.
func (p Pipeline) With(opts ...PipelineOption) Pipeline {
	c := p
	c.settings = p.settings.clone()
	c.cmdArgs = slices.Clone(p.cmdArgs)
	c.declared = slices.Clone(p.declared)
	c.stages = slices.Clone(p.stages)
	c.postStages = slices.Clone(p.postStages)
	for _, opt := range opts {
		if opt != nil {
			opt.applyPipeline(&c)
		}
	}
	return c
}

// Name returns the pipeline name.
func (p Pipeline) Name() string { return p.name }

// CmdArgs returns the raw command-line tokens.
func (p Pipeline) CmdArgs() []string { return slices.Clone(p.cmdArgs) }

// Timeout returns the pipeline-wide timeout (0 if none).
func (p Pipeline) Timeout() time.Duration { return p.timeout }

// WorkingDir returns the pipeline-level working directory, or "".
func (p Pipeline) WorkingDir() string { return p.workingDir }

// Env returns a copy of the pipeline's variables.
func (p Pipeline) Env() map[string]string { return maps.Clone(p.env) }

// StageTimeout returns the default stage timeout; 0 means none.
func (p Pipeline) StageTimeout() time.Duration { return p.stageTimeout }

// StepTimeout returns the default step timeout; 0 means none.
func (p Pipeline) StepTimeout() time.Duration { return p.stepTimeout }

// DeclaredArgs returns the argument descriptors declared for documentation.
func (p Pipeline) DeclaredArgs() []CmdArg { return slices.Clone(p.declared) }

// Stages returns a copy of the primary stages.
func (p Pipeline) Stages() []Stage { return slices.Clone(p.stages) }

// PostStages returns a copy of the post-stages.
func (p Pipeline) PostStages() []Stage { return slices.Clone(p.postStages) }
