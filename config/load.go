package config

import (
	"fmt"
	"os"

	"github.com/dcshock/runpipe/pipeline"
	"github.com/joho/godotenv"
)

// Load reads the pipeline file at path, validates it and builds it with env.
func Load(path string, reg *Registry, env pipeline.Environment) (pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Pipeline{}, fmt.Errorf("load %s: %w", path, err)
	}
	p, err := LoadBytes(data, reg, env)
	if err != nil {
		return pipeline.Pipeline{}, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// LoadBytes is Load for a document already in memory.
func LoadBytes(data []byte, reg *Registry, env pipeline.Environment) (pipeline.Pipeline, error) {
	if err := Validate(data); err != nil {
		return pipeline.Pipeline{}, err
	}
	cfg, err := ParsePipelineConfig(data)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	return BuildPipeline(reg, cfg, env)
}

// LoadEnvironment snapshots the process environment and overlays the
// variables of each .env file in order, later files winning. args become the
// pipeline's command-line tokens.
func LoadEnvironment(args []string, envFiles ...string) (pipeline.Environment, error) {
	env := pipeline.ProcessEnvironment()
	env.Args = append([]string(nil), args...)
	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if err != nil {
			return pipeline.Environment{}, fmt.Errorf("env file %s: %w", f, err)
		}
		for k, v := range vars {
			env.Vars[k] = v
		}
	}
	return env, nil
}
