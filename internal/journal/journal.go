// Package journal records what each build rendered so later builds can
// skip unchanged sources and report past failures.
package journal

import (
	"context"
	"time"

	"github.com/inful/mdfp"
)

// Build outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomePartial   = "partial"
)

// Build is one recorded build run.
type Build struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Outcome  string
	Files    int
	Failures int
}

// Render is the last successful render of one source path.
type Render struct {
	Path        string
	Fingerprint string
	Output      string
	Kind        string
	BuildID     string
	RenderedAt  time.Time
}

// Failure is one file that failed during a build.
type Failure struct {
	BuildID string
	Path    string
	Stage   string
	Message string
}

// Store persists the journal.
type Store interface {
	BeginBuild(ctx context.Context, id string, started time.Time) error
	FinishBuild(ctx context.Context, b Build) error
	LastBuild(ctx context.Context) (Build, bool, error)

	RecordRender(ctx context.Context, r Render) error
	Lookup(ctx context.Context, path string) (Render, bool, error)

	RecordFailure(ctx context.Context, f Failure) error
	Failures(ctx context.Context, buildID string) ([]Failure, error)

	Close() error
}

// Fingerprint identifies source content for change detection. It hashes
// the content together with the site fingerprint so a configuration change
// invalidates every entry.
func Fingerprint(siteFingerprint, content string) string {
	return mdfp.CalculateFingerprintFromParts(siteFingerprint, content)
}
