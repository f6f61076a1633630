package report

import (
	"github.com/dcshock/runpipe/pipeline"
	"github.com/sirupsen/logrus"
)

// LogReporter writes one structured entry per event. Start and output events
// are logged at debug level; failures at error level.
type LogReporter struct {
	Entry *logrus.Entry
}

// NewLogReporter returns a LogReporter on l.
func NewLogReporter(l *logrus.Logger) *LogReporter {
	return &LogReporter{Entry: logrus.NewEntry(l).WithField("package", "report")}
}

// Report logs e as one entry with its fields attached.
func (r *LogReporter) Report(e pipeline.Event) {
	logger := r.Entry.WithFields(logrus.Fields{
		"event":  e.Kind.String(),
		"run_id": e.RunID,
	})
	if e.Mode == pipeline.Documentation {
		logger = logger.WithField("mode", e.Mode.String())
	}
	if e.Path != "" {
		logger = logger.WithField("stage", e.Path)
	}
	if e.Index >= 0 {
		logger = logger.WithField("index", e.Index)
	}
	if e.Step != "" {
		logger = logger.WithField("step", e.Step)
	}

	switch e.Kind {
	case pipeline.PipelineStarted, pipeline.StageStarted, pipeline.StepStarted:
		logger.Debug(e.Kind.String())
	case pipeline.Output:
		logger.Debug(e.Text)
	case pipeline.ConditionDescribed, pipeline.ArgDocumented:
		logger.Info(e.Text)
	case pipeline.StageInactive:
		logger.WithField("status", e.Status.String()).Info("stage inactive")
	default:
		logger = logger.WithFields(logrus.Fields{
			"status":  e.Status.String(),
			"elapsed": e.Elapsed.String(),
		})
		if e.Err != nil {
			logger = logger.WithError(e.Err)
		}
		switch e.Status {
		case pipeline.Failed:
			logger.Error(e.Kind.String())
		case pipeline.Cancelled:
			logger.Warn(e.Kind.String())
		default:
			logger.Info(e.Kind.String())
		}
	}
}
