package main

import (
	"fmt"

	"github.com/dcshock/runpipe/executor"
	"github.com/dcshock/runpipe/pipeline"
	"github.com/dcshock/runpipe/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- pipeline args...]",
		Short: "Run the pipeline",
		Long:  "Run the pipeline's stages, then its post-stages. Arguments after -- are passed to the pipeline's conditions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args, pipeline.Execution)
		},
	}
}

func newDocCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "doc [-- pipeline args...]",
		Short: "Describe the pipeline without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args, pipeline.Documentation)
		},
	}
}

func (o *options) run(cmd *cobra.Command, args []string, mode pipeline.Mode) error {
	p, err := o.load(args)
	if err != nil {
		return err
	}

	reporter := pipeline.MultiReporter(o.console(), report.NewLogReporter(logrus.StandardLogger()))
	r := &pipeline.Runner{Reporter: reporter, Mode: mode}
	if mode == pipeline.Execution {
		r.Executor = executor.New(reporter)
	}

	res, err := r.Run(cmd.Context(), p)
	logger.WithFields(logrus.Fields{
		"run_id":  res.RunID,
		"status":  res.Status.String(),
		"elapsed": res.Elapsed.String(),
	}).Info("run finished")
	if err != nil {
		return fmt.Errorf("pipeline %s %s: %w", p.Name(), res.Status, err)
	}
	return nil
}
