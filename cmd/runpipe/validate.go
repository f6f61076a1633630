package main

import (
	"fmt"
	"os"

	"github.com/dcshock/runpipe/config"
	"github.com/dcshock/runpipe/pipeline"
	"github.com/spf13/cobra"
)

func newValidateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the pipeline file against the schema and build it without running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(o.file)
			if err != nil {
				return fmt.Errorf("reading pipeline file: %w", err)
			}
			p, err := config.LoadBytes(data, o.reg, pipeline.Environment{})
			if err != nil {
				return fmt.Errorf("%s: %w", o.file, err)
			}
			fmt.Fprintf(o.stdout, "%s: pipeline %q is valid (%d stages, %d post-stages)\n",
				o.file, p.Name(), len(p.Stages()), len(p.PostStages()))
			return nil
		},
	}
}
