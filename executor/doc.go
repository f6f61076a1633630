// Package executor runs shell command steps as local processes. Each process
// gets its own process group so cancellation terminates everything it
// spawned, and every line it writes is streamed to a pipeline.Reporter as an
// Output event labelled with the step.
package executor
