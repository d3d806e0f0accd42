package build

import (
	"time"
)

// Request holds the options for one build run.
type Request struct {
	// Incremental skips files whose fingerprint matches the journal and
	// whose output still exists.
	Incremental bool

	// FailFast aborts the build on the first failed file.
	FailFast bool
}

// Status represents the outcome of a build run.
type Status string

const (
	// StatusSuccess indicates every file rendered.
	StatusSuccess Status = "success"

	// StatusPartial indicates some files failed and the rest were written.
	StatusPartial Status = "partial"

	// StatusFailed indicates the build was aborted by a failure.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the context was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether every file rendered.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// FileFailure is one file that could not be rendered.
type FileFailure struct {
	Path  string
	Stage string
	Err   error
}

// Result contains the outcome of a build run.
type Result struct {
	BuildID string
	Status  Status

	// Files is the number of source files discovered.
	Files int
	// Rendered counts files written this run.
	Rendered int
	// Skipped counts files left untouched by an incremental build.
	Skipped int
	// Failures lists failed files in completion order.
	Failures []FileFailure

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
