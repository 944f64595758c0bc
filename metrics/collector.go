// Package metrics provides per-pass metrics collection.
//
// The Collector accumulates counters during a single pass. It is a leaf
// package with no internal dependencies. All increment methods are
// nil-receiver safe so instrumentation can be dropped without nil checks
// at call sites.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of pass metrics. Returned
// by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Job lifecycle
	JobsStarted   int64 `json:"jobs_started"`
	JobsSucceeded int64 `json:"jobs_succeeded"`
	JobsFailed    int64 `json:"jobs_failed"`
	JobsSkipped   int64 `json:"jobs_skipped"`

	// Archive fetches
	SlicesFetched int64 `json:"slices_fetched"`
	FetchFailures int64 `json:"fetch_failures"`

	// Pipeline stages
	AggregationFailures int64 `json:"aggregation_failures"`
	ValidationFailures  int64 `json:"validation_failures"`
	PersistFailures     int64 `json:"persist_failures"`

	// Dimensions (informational, set at construction)
	PassID  string `json:"pass_id"`
	Attempt int    `json:"attempt"`
}

// Collector accumulates metrics during a single pass.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	jobsStarted   int64
	jobsSucceeded int64
	jobsFailed    int64
	jobsSkipped   int64

	slicesFetched int64
	fetchFailures int64

	aggregationFailures int64
	validationFailures  int64
	persistFailures     int64

	passID  string
	attempt int
}

// NewCollector creates a Collector labeled with the pass identity.
func NewCollector(passID string, attempt int) *Collector {
	return &Collector{passID: passID, attempt: attempt}
}

// IncJobStarted records a day job being dispatched.
func (c *Collector) IncJobStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.jobsStarted++
	c.mu.Unlock()
}

// IncJobSucceeded records a day job reaching the succeeded state.
func (c *Collector) IncJobSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.jobsSucceeded++
	c.mu.Unlock()
}

// IncJobFailed records a day job reaching the failed state.
func (c *Collector) IncJobFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.jobsFailed++
	c.mu.Unlock()
}

// IncJobSkipped records a day job skipped because its aggregate already
// exists on disk.
func (c *Collector) IncJobSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.jobsSkipped++
	c.mu.Unlock()
}

// IncSliceFetched records one hourly slice downloaded from the archive.
func (c *Collector) IncSliceFetched() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.slicesFetched++
	c.mu.Unlock()
}

// IncFetchFailure records a failed slice download.
func (c *Collector) IncFetchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchFailures++
	c.mu.Unlock()
}

// IncAggregationFailure records a failed daily collapse.
func (c *Collector) IncAggregationFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.aggregationFailures++
	c.mu.Unlock()
}

// IncValidationFailure records an aggregate rejected by a plausibility rule.
func (c *Collector) IncValidationFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.validationFailures++
	c.mu.Unlock()
}

// IncPersistFailure records a failed aggregate store write.
func (c *Collector) IncPersistFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.persistFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters. The
// Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		JobsStarted:   c.jobsStarted,
		JobsSucceeded: c.jobsSucceeded,
		JobsFailed:    c.jobsFailed,
		JobsSkipped:   c.jobsSkipped,

		SlicesFetched: c.slicesFetched,
		FetchFailures: c.fetchFailures,

		AggregationFailures: c.aggregationFailures,
		ValidationFailures:  c.validationFailures,
		PersistFailures:     c.persistFailures,

		PassID:  c.passID,
		Attempt: c.attempt,
	}
}
