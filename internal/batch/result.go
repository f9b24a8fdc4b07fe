package batch

import (
	"fmt"
	"time"

	"tubescribe/internal/artifacts"
	"tubescribe/internal/input"
)

// Status is the final state of one work item.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	// StatusDegraded is a partial transcript; it counts as success.
	StatusDegraded Status = "degraded"
	// StatusSkipped means nothing needed doing or the work was disabled.
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one work item.
type Outcome struct {
	Item     input.WorkItem
	Title    string
	Status   Status
	Paths    artifacts.Paths
	Detail   string
	Category string
	Err      error
	// Chunks and FailedChunks are zero when transcription did not run.
	Chunks       int
	FailedChunks int
	Elapsed      time.Duration
}

// Counts tallies outcomes by status.
type Counts struct {
	Succeeded int
	Degraded  int
	Skipped   int
	Failed    int
}

// Total returns the number of outcomes counted.
func (c Counts) Total() int {
	return c.Succeeded + c.Degraded + c.Skipped + c.Failed
}

// Result is the ordered record of a batch run.
type Result struct {
	RunID      string
	Input      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Counts tallies the result's outcomes.
func (r Result) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			c.Succeeded++
		case StatusDegraded:
			c.Degraded++
		case StatusSkipped:
			c.Skipped++
		default:
			c.Failed++
		}
	}
	return c
}

// ExitCode is 1 when any item failed outright, otherwise 0.
func (r Result) ExitCode() int {
	if r.Counts().Failed > 0 {
		return 1
	}
	return 0
}

// Summary returns a one-line human-readable tally.
func (r Result) Summary() string {
	c := r.Counts()
	return fmt.Sprintf("%d item(s): %d succeeded, %d degraded, %d skipped, %d failed",
		c.Total(), c.Succeeded, c.Degraded, c.Skipped, c.Failed)
}
