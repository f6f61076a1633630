package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dcshock/runpipe/config"
	"github.com/dcshock/runpipe/pipeline"
	"github.com/dcshock/runpipe/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailed      = 1
	exitInterrupted = 130
)

type options struct {
	file     string
	logLevel string
	theme    string
	envFiles []string
	timeout  time.Duration
	noColor  bool

	stdout io.Writer
	stderr io.Writer
	reg    *config.Registry
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr, reg: config.NewRegistry()}
	root := &cobra.Command{
		Use:           "runpipe",
		Short:         "Run declarative build pipelines",
		Long:          "runpipe runs the stages of a YAML pipeline file, documents what a run would do, or validates the file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.configureLogging()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&o.file, "file", "f", "pipeline.yaml", "pipeline file path")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error (default $RUNPIPE_LOG_LEVEL or warn)")
	flags.StringVar(&o.theme, "theme", "", "console color theme: dark or light")
	flags.StringSliceVar(&o.envFiles, "env-file", nil, ".env file to overlay on the process environment (repeatable)")
	flags.DurationVar(&o.timeout, "timeout", 0, "override the pipeline timeout")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRunCmd(o), newDocCmd(o), newValidateCmd(o))
	return root
}

func (o *options) configureLogging() error {
	level := o.logLevel
	if level == "" {
		level = os.Getenv("RUNPIPE_LOG_LEVEL")
	}
	lvl := logrus.WarnLevel
	if level != "" {
		var err error
		if lvl, err = logrus.ParseLevel(level); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(o.stderr)
	return nil
}

// load builds the pipeline from the file with args as its command-line tokens.
func (o *options) load(args []string) (pipeline.Pipeline, error) {
	env, err := config.LoadEnvironment(args, o.envFiles...)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	p, err := config.Load(o.file, o.reg, env)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	if o.timeout != 0 {
		p = p.With(pipeline.Timeout(o.timeout))
	}
	return p, nil
}

func (o *options) console() *report.Console {
	return report.NewConsole(o.stdout, report.DetectTheme(o.theme), report.ColorEnabled(o.stdout, o.noColor))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pipeline.ErrInterrupted):
		return exitInterrupted
	}
	return exitFailed
}
