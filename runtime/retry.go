package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/isohyet-io/isohyet/log"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/store"
	"github.com/isohyet-io/isohyet/types"
)

// RetryManager re-runs the dates recorded in the failure ledger, exactly
// once. Dates that fail again are moved to the ultimate failure log and
// the ledger is emptied; there is no second retry.
type RetryManager struct {
	Config   SchedulerConfig
	Worker   Worker
	Ledger   store.Ledger
	Ultimate *store.UltimateLog
	Metrics  *metrics.Collector
	Logger   *log.Logger
}

// RetryResult aggregates one retry pass.
type RetryResult struct {
	// Attempted is the number of distinct dates taken from the ledger.
	Attempted int
	// Recovered counts dates that succeeded on retry.
	Recovered int
	// Ultimate counts dates appended to the ultimate failure log.
	Ultimate int
	// Outcomes holds each retried job's terminal outcome, keyed by date.
	Outcomes map[types.Date]Outcome
}

// RunOnce executes the retry pass. An empty ledger completes immediately
// with no action. Otherwise every ledgered date is re-run under the same
// concurrency bound as an initial pass; dates that fail again are
// appended to the ultimate failure log, and the ledger ends the pass
// empty either way.
//
// On context cancellation the ledger is left as it was, so a later retry
// still sees the full failure set.
func (m *RetryManager) RunOnce(ctx context.Context) (*RetryResult, error) {
	records, err := m.Ledger.Read()
	if err != nil {
		return nil, fmt.Errorf("loading failure ledger: %w", err)
	}
	if len(records) == 0 {
		m.Logger.Info("failure ledger empty, nothing to retry", nil)
		return &RetryResult{Outcomes: map[types.Date]Outcome{}}, nil
	}

	dates := datesFromRecords(records)
	m.Logger.Info("retry pass started", map[string]any{"dates": len(dates)})

	scheduler := NewScheduler(m.Config, m.Worker, m.Ledger, m.Metrics, m.Logger)
	pass, err := scheduler.Run(ctx, dates)
	if err != nil {
		// Scheduler.Run leaves the ledger untouched on cancellation and
		// reports its own write failures; either way the retry did not
		// complete.
		return nil, err
	}

	stillFailed := pass.FailureRecords()
	if len(stillFailed) > 0 {
		if err := m.Ultimate.Append(stillFailed); err != nil {
			return nil, fmt.Errorf("recording ultimate failures: %w", err)
		}
		// The twice-failed dates now live in the ultimate log only. The
		// scheduler wrote them to the ledger at pass end; clear it so
		// they are not retried again.
		if err := m.Ledger.Write(nil); err != nil {
			return nil, fmt.Errorf("clearing failure ledger: %w", err)
		}
	}

	result := &RetryResult{
		Attempted: len(dates),
		Recovered: len(dates) - len(stillFailed),
		Ultimate:  len(stillFailed),
		Outcomes:  pass.Outcomes,
	}
	m.Logger.Info("retry pass finished", map[string]any{
		"attempted": result.Attempted,
		"recovered": result.Recovered,
		"ultimate":  result.Ultimate,
	})
	return result, nil
}

// datesFromRecords extracts the distinct dates from ledger records in
// ascending order. A date can appear once per pass at most, but the
// retry pass does not depend on that.
func datesFromRecords(records []types.FailureRecord) []types.Date {
	seen := make(map[types.Date]struct{}, len(records))
	dates := make([]types.Date, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.Date]; ok {
			continue
		}
		seen[rec.Date] = struct{}{}
		dates = append(dates, rec.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
