// Package report renders pipeline lifecycle events. Console writes a
// human-readable, optionally colored transcript; LogReporter turns events into
// structured logrus entries for CI log collectors.
package report
