// Package runtime executes day jobs: the per-day worker pipeline, the
// bounded-concurrency scheduler, and the one-shot retry pass over the
// failure ledger.
package runtime

import (
	"time"

	"github.com/isohyet-io/isohyet/types"
)

// Outcome is the terminal result of one day job within a pass.
type Outcome struct {
	Date  types.Date
	State types.JobState

	// Kind and Message describe the failure when State is JobFailed.
	Kind    types.FailureKind
	Message string

	// Skipped is set on succeeded jobs whose aggregate already existed
	// on disk, so no work was performed.
	Skipped bool

	Duration time.Duration
}

// Succeeded reports whether the job reached the succeeded state.
func (o Outcome) Succeeded() bool { return o.State == types.JobSucceeded }

// Failed reports whether the job reached the failed state.
func (o Outcome) Failed() bool { return o.State == types.JobFailed }

// FailureRecord converts a failed outcome into its ledger record.
func (o Outcome) FailureRecord() types.FailureRecord {
	return types.FailureRecord{
		Date:      o.Date,
		Kind:      o.Kind,
		Message:   o.Message,
		Timestamp: time.Now().UTC(),
	}
}

func successOutcome(date types.Date, skipped bool, start time.Time) Outcome {
	return Outcome{
		Date:     date,
		State:    types.JobSucceeded,
		Skipped:  skipped,
		Duration: time.Since(start),
	}
}

func failureOutcome(date types.Date, kind types.FailureKind, message string, start time.Time) Outcome {
	return Outcome{
		Date:     date,
		State:    types.JobFailed,
		Kind:     kind,
		Message:  message,
		Duration: time.Since(start),
	}
}
