package types

// JobState is the lifecycle state of a single day's job.
type JobState string

const (
	// JobPending indicates the job is enumerated but not yet dispatched.
	JobPending JobState = "pending"
	// JobRunning indicates a worker is currently executing the job.
	JobRunning JobState = "running"
	// JobSucceeded is terminal: the daily aggregate is persisted.
	JobSucceeded JobState = "succeeded"
	// JobFailed indicates the job failed this pass and is eligible for
	// exactly one retry pass.
	JobFailed JobState = "failed"
	// JobUltimateFailed is terminal: the job failed both the initial and
	// the retry pass and receives no further automatic handling.
	JobUltimateFailed JobState = "ultimate_failed"
)

// Terminal reports whether the state receives no further automatic processing.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobUltimateFailed
}
