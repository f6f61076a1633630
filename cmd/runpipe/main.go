// Command runpipe runs, documents and validates YAML pipeline files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dcshock/runpipe/pipeline"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("package", "main")

func main() {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	stop := cancelOnSignal(cancel)

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "runpipe:", err)
	}
	os.Exit(exitCode(err))
}

// cancelOnSignal cancels with pipeline.ErrInterrupted on the first SIGINT or
// SIGTERM. Default handling is restored afterwards, so a second signal
// terminates the process while the run is still shutting down.
func cancelOnSignal(cancel context.CancelCauseFunc) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh)
			logger.WithField("signal", sig.String()).Warn("interrupted, cancelling run")
			cancel(pipeline.ErrInterrupted)
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}
