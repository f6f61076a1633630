package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dcshock/runpipe/pipeline"
)

// BuildPipeline builds an immutable pipeline.Pipeline from cfg, seeded with
// env. Every func and check name in cfg must be registered in reg.
func BuildPipeline(reg *Registry, cfg *PipelineConfig, env pipeline.Environment) (pipeline.Pipeline, error) {
	if cfg == nil {
		return pipeline.Pipeline{}, fmt.Errorf("config is nil")
	}
	if cfg.Name == "" {
		return pipeline.Pipeline{}, fmt.Errorf("pipeline name required")
	}
	if reg == nil {
		reg = NewRegistry()
	}
	b := &builder{reg: reg}
	for _, a := range cfg.Args {
		b.args = append(b.args, pipeline.CmdArg{Long: a.Long, Short: a.Short, Values: a.Values, Description: a.Description})
	}

	stages, err := b.stages("stage", cfg.Stages)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	post, err := b.stages("post stage", cfg.Post)
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	opts := []pipeline.PipelineOption{
		pipeline.EnvMap(cfg.Env),
		pipeline.DeclareArgs(b.args...),
		pipeline.Stages(stages...),
		pipeline.PostStages(post...),
	}
	if cfg.WorkingDir != "" {
		opts = append(opts, pipeline.WorkDir(cfg.WorkingDir))
	}
	if d := cfg.Timeout.Duration(); d > 0 {
		opts = append(opts, pipeline.Timeout(d))
	}
	if d := cfg.StageTimeout.Duration(); d != 0 {
		opts = append(opts, pipeline.StageTimeout(d))
	}
	if d := cfg.StepTimeout.Duration(); d != 0 {
		opts = append(opts, pipeline.StepTimeout(d))
	}
	return pipeline.NewPipeline(cfg.Name, env, opts...), nil
}

type builder struct {
	reg  *Registry
	args []pipeline.CmdArg
}

func (b *builder) stages(kind string, cfgs []StageConfig) ([]pipeline.Stage, error) {
	out := make([]pipeline.Stage, 0, len(cfgs))
	for i, sc := range cfgs {
		st, err := b.stage(sc)
		if err != nil {
			return nil, fmt.Errorf("%s %d (%q): %w", kind, i, sc.Name, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func (b *builder) stage(cfg StageConfig) (pipeline.Stage, error) {
	if cfg.Name == "" {
		return pipeline.Stage{}, fmt.Errorf("name required")
	}
	opts := []pipeline.StageOption{pipeline.EnvMap(cfg.Env)}
	if cfg.WorkingDir != "" {
		opts = append(opts, pipeline.WorkDir(cfg.WorkingDir))
	}
	if d := cfg.Timeout.Duration(); d != 0 {
		opts = append(opts, pipeline.StageTimeout(d))
	}
	if d := cfg.StepTimeout.Duration(); d != 0 {
		opts = append(opts, pipeline.StepTimeout(d))
	}
	if cfg.Parallel {
		opts = append(opts, pipeline.Parallel())
	}
	if cfg.ExitCodes != nil {
		opts = append(opts, pipeline.AcceptExitCodes(*cfg.ExitCodes...))
	}
	if cfg.When != nil {
		cond, err := b.condition(*cfg.When)
		if err != nil {
			return pipeline.Stage{}, fmt.Errorf("when: %w", err)
		}
		opts = append(opts, pipeline.When(cond))
	}
	for i, ref := range cfg.Steps {
		step, err := b.step(ref)
		if err != nil {
			return pipeline.Stage{}, fmt.Errorf("step %d: %w", i, err)
		}
		opts = append(opts, step)
	}
	return pipeline.NewStage(cfg.Name, opts...), nil
}

func (b *builder) step(ref StepRef) (pipeline.Step, error) {
	set := 0
	for _, ok := range []bool{ref.Run != "", ref.Func != "", ref.Stage != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of run, func or stage required")
	}

	if ref.Stage != nil {
		if ref.Timeout != 0 {
			return nil, fmt.Errorf("timeout on a nested stage step: set timeout on the stage itself")
		}
		nested, err := b.stage(*ref.Stage)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", ref.Stage.Name, err)
		}
		return pipeline.Nest(nested), nil
	}

	var step pipeline.CommandStep
	if ref.Func != "" {
		fn, ok := b.reg.Func(ref.Func)
		if !ok {
			return nil, fmt.Errorf("func %q not in registry", ref.Func)
		}
		step = pipeline.Func(ref.Func, fn)
	} else {
		step = pipeline.Sh(ref.Run)
	}
	if ref.Name != "" {
		step.Name = ref.Name
	}
	if d := ref.Timeout.Duration(); d > 0 {
		step = pipeline.WithTimeout(step, d)
	}
	return step, nil
}

func (b *builder) condition(cfg ConditionConfig) (pipeline.Condition, error) {
	var conds []pipeline.Condition
	if len(cfg.Branch) > 0 {
		conds = append(conds, pipeline.Branch(cfg.Branch...))
	}
	for _, key := range cfg.EnvSet {
		conds = append(conds, pipeline.EnvSet(key))
	}
	for _, key := range sortedKeys(cfg.Env) {
		conds = append(conds, pipeline.EnvEquals(key, cfg.Env[key]))
	}
	for _, name := range cfg.Arg {
		conds = append(conds, pipeline.ArgSet(b.arg(name)))
	}
	for _, name := range sortedKeys(cfg.ArgEquals) {
		conds = append(conds, pipeline.ArgEquals(b.arg(name), cfg.ArgEquals[name]))
	}
	if len(cfg.Platform) > 0 {
		conds = append(conds, pipeline.Platform(cfg.Platform...))
	}
	for _, name := range cfg.Check {
		c, ok := b.reg.Condition(name)
		if !ok {
			return nil, fmt.Errorf("check %q not in registry", name)
		}
		conds = append(conds, c)
	}
	if cfg.Not != nil {
		c, err := b.condition(*cfg.Not)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		conds = append(conds, pipeline.Not(c))
	}
	if len(cfg.Any) > 0 {
		alts := make([]pipeline.Condition, 0, len(cfg.Any))
		for i, a := range cfg.Any {
			c, err := b.condition(a)
			if err != nil {
				return nil, fmt.Errorf("any %d: %w", i, err)
			}
			alts = append(alts, c)
		}
		conds = append(conds, pipeline.Any(alts...))
	}

	switch len(conds) {
	case 0:
		return pipeline.Always(), nil
	case 1:
		return conds[0], nil
	}
	return pipeline.All(conds...), nil
}

// arg resolves name against the declared arguments, matching either form.
// Undeclared names become ad-hoc descriptors.
func (b *builder) arg(name string) pipeline.CmdArg {
	bare := strings.TrimLeft(name, "-")
	for _, a := range b.args {
		if a.Long == bare || a.Short == bare {
			return a
		}
	}
	if len(bare) == 1 {
		return pipeline.CmdArg{Short: bare}
	}
	return pipeline.CmdArg{Long: bare}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
