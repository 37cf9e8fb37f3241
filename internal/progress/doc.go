// Package progress carries archive-level milestones of an acquisition run to
// pluggable sinks. Emit never blocks the pipeline; a background goroutine
// batches events and hands them to sinks such as structured logs or
// Prometheus collectors.
package progress
