package config

import (
	"fmt"
	"time"

	"github.com/dcshock/runpipe/pipeline"
	"gopkg.in/yaml.v3"
)

// PipelineConfig is the root structure of a pipeline file.
type PipelineConfig struct {
	Name         string            `yaml:"name"`
	Timeout      Duration          `yaml:"timeout"`
	StageTimeout Duration          `yaml:"stage_timeout"`
	StepTimeout  Duration          `yaml:"step_timeout"`
	WorkingDir   string            `yaml:"workdir"`
	Env          map[string]string `yaml:"env"`
	Args         []ArgConfig       `yaml:"args"`
	Stages       []StageConfig     `yaml:"stages"`
	Post         []StageConfig     `yaml:"post"`
}

// ArgConfig declares a command-line argument for documentation and for
// conditions that refer to it by name.
type ArgConfig struct {
	Long        string   `yaml:"long"`
	Short       string   `yaml:"short"`
	Values      []string `yaml:"values"`
	Description string   `yaml:"description"`
}

// StageConfig is one stage. ExitCodes left out means the default {0}; an
// explicit empty list accepts no exit code at all.
type StageConfig struct {
	Name        string            `yaml:"name"`
	Parallel    bool              `yaml:"parallel"`
	WorkingDir  string            `yaml:"workdir"`
	Env         map[string]string `yaml:"env"`
	Timeout     Duration          `yaml:"timeout"`
	StepTimeout Duration          `yaml:"step_timeout"`
	ExitCodes   *[]int            `yaml:"exit_codes"`
	When        *ConditionConfig  `yaml:"when"`
	Steps       []StepRef         `yaml:"steps"`
}

// StepRef is a single step: a plain command line or one of run, func or
// stage. In YAML a step can be written as:
//   - go test ./...
//   - run: go test ./...
//     timeout: 5m
//   - func: notify
//   - stage: {name: inner, steps: [make]}
type StepRef struct {
	Name    string       `yaml:"name"`
	Run     string       `yaml:"run"`
	Func    string       `yaml:"func"`
	Stage   *StageConfig `yaml:"stage"`
	Timeout Duration     `yaml:"timeout"`
}

// UnmarshalYAML allows a step to be a string (command line only) or a struct.
func (s *StepRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var line string
		if err := value.Decode(&line); err != nil {
			return err
		}
		s.Run = line
		return nil
	}
	type raw StepRef
	return value.Decode((*raw)(s))
}

// ConditionConfig is a stage activation condition. Every field that is set
// must hold.
type ConditionConfig struct {
	Branch    StringList        `yaml:"branch"`
	EnvSet    StringList        `yaml:"env_set"`
	Env       map[string]string `yaml:"env"`
	Arg       StringList        `yaml:"arg"`
	ArgEquals map[string]string `yaml:"arg_equals"`
	Platform  StringList        `yaml:"platform"`
	Check     StringList        `yaml:"check"`
	Not       *ConditionConfig  `yaml:"not"`
	Any       []ConditionConfig `yaml:"any"`
}

// StringList unmarshals from a single string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings (e.g. "60s", "5m").
// The string "none" disables a timeout that would otherwise be inherited.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "none" {
		*d = Duration(pipeline.NoTimeout)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q: must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParsePipelineConfig parses YAML bytes into a PipelineConfig.
func ParsePipelineConfig(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
