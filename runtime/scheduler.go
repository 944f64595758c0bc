package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/isohyet-io/isohyet/log"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/store"
	"github.com/isohyet-io/isohyet/types"
)

// SchedulerConfig configures a pass over a set of dates.
type SchedulerConfig struct {
	// Concurrency is the maximum number of day jobs in flight at once.
	Concurrency int
}

// PassResult aggregates one pass over a date set.
type PassResult struct {
	// DatesTotal is the number of dates dispatched.
	DatesTotal int64
	// Succeeded counts jobs that reached the succeeded state, including
	// skipped dates whose aggregate already existed.
	Succeeded int64
	// Failed counts jobs that reached the failed state.
	Failed int64
	// Skipped counts the subset of Succeeded that performed no work.
	Skipped int64
	// Outcomes holds each job's terminal outcome, keyed by date.
	Outcomes map[types.Date]Outcome
}

// FailureRecords returns ledger records for the failed outcomes, in date
// order.
func (r *PassResult) FailureRecords() []types.FailureRecord {
	var records []types.FailureRecord
	for _, o := range r.Outcomes {
		if o.Failed() {
			records = append(records, o.FailureRecord())
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records
}

// Scheduler dispatches day jobs across a bounded worker pool and records
// the pass's failures in the ledger.
type Scheduler struct {
	config  SchedulerConfig
	worker  Worker
	ledger  store.Ledger
	metrics *metrics.Collector
	logger  *log.Logger

	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64

	resultsMu sync.Mutex
	outcomes  map[types.Date]Outcome
}

// NewScheduler creates a scheduler over the given worker. Concurrency
// values below 1 are raised to 1.
func NewScheduler(config SchedulerConfig, worker Worker, ledger store.Ledger, collector *metrics.Collector, logger *log.Logger) *Scheduler {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Scheduler{
		config:   config,
		worker:   worker,
		ledger:   ledger,
		metrics:  collector,
		logger:   logger,
		outcomes: make(map[types.Date]Outcome),
	}
}

// Run executes one pass over dates. Each date is dispatched exactly once;
// at most Concurrency jobs run at a time. When every job has reached a
// terminal outcome the ledger is replaced with this pass's failure set.
//
// On context cancellation Run stops dispatching, waits for in-flight jobs
// to wind down, and returns the context error without touching the
// ledger, so the previous pass's ledger stays intact.
//
// A ledger write failure is returned as an error: without a durable
// failure set the retry pass would silently lose work.
func (s *Scheduler) Run(ctx context.Context, dates []types.Date) (*PassResult, error) {
	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	s.logger.Info("pass started", map[string]any{
		"dates":       len(dates),
		"concurrency": s.config.Concurrency,
	})

dispatch:
	for _, date := range dates {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		s.metrics.IncJobStarted()
		wg.Add(1)
		go func(d types.Date) {
			defer wg.Done()
			defer func() { <-sem }()
			s.record(s.worker.Run(ctx, d))
		}(date)
	}

	wg.Wait()

	result := s.result(int64(len(dates)))
	if err := ctx.Err(); err != nil {
		s.logger.Warn("pass canceled", map[string]any{
			"dispatched": len(result.Outcomes),
			"dates":      len(dates),
		})
		return result, err
	}

	if err := s.ledger.Write(result.FailureRecords()); err != nil {
		return result, fmt.Errorf("recording pass failures: %w", err)
	}

	s.logger.Info("pass finished", map[string]any{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	})
	return result, nil
}

func (s *Scheduler) record(o Outcome) {
	switch {
	case o.Succeeded() && o.Skipped:
		s.succeeded.Add(1)
		s.skipped.Add(1)
		s.metrics.IncJobSkipped()
	case o.Succeeded():
		s.succeeded.Add(1)
		s.metrics.IncJobSucceeded()
	default:
		s.failed.Add(1)
		s.metrics.IncJobFailed()
	}

	s.resultsMu.Lock()
	s.outcomes[o.Date] = o
	s.resultsMu.Unlock()
}

func (s *Scheduler) result(total int64) *PassResult {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	outcomes := make(map[types.Date]Outcome, len(s.outcomes))
	for d, o := range s.outcomes {
		outcomes[d] = o
	}
	return &PassResult{
		DatesTotal: total,
		Succeeded:  s.succeeded.Load(),
		Failed:     s.failed.Load(),
		Skipped:    s.skipped.Load(),
		Outcomes:   outcomes,
	}
}
