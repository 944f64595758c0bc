package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/isohyet-io/isohyet/aggregate"
	"github.com/isohyet-io/isohyet/archive"
	"github.com/isohyet-io/isohyet/log"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/store"
	"github.com/isohyet-io/isohyet/types"
)

// Worker executes one day job to a terminal outcome. Implementations
// must be safe for concurrent use; the scheduler calls Run from multiple
// goroutines.
type Worker interface {
	Run(ctx context.Context, date types.Date) Outcome
}

// DayWorker runs the full per-day pipeline: fetch the date's 24 hourly
// slices, collapse them to a daily aggregate, validate it, and persist it
// atomically. Any stage failure produces a failed outcome with the
// stage's failure kind; nothing partial is left behind.
type DayWorker struct {
	Archive    archive.Client
	Aggregator *aggregate.Aggregator
	Rules      []aggregate.Rule
	Store      store.AggregateStore
	Metrics    *metrics.Collector
	Logger     *log.Logger

	// LogDir, when set, gives each date its own append-only log stream
	// under LogDir/days in addition to the shared pass log.
	LogDir string
}

// Verify DayWorker implements Worker.
var _ Worker = (*DayWorker)(nil)

// Run implements Worker.
func (w *DayWorker) Run(ctx context.Context, date types.Date) Outcome {
	start := time.Now()
	logger, closeLog := w.dateLogger(date)
	defer closeLog()

	// A date whose aggregate is already on disk is complete. Re-running a
	// pass over the same range must not redo or disturb finished days.
	if done, err := w.Store.Exists(date); err != nil {
		w.Metrics.IncPersistFailure()
		return failureOutcome(date, types.FailureAggregation,
			fmt.Sprintf("checking existing aggregate: %v", err), start)
	} else if done {
		logger.Info("aggregate already present, skipping", nil)
		return successOutcome(date, true, start)
	}

	logger.Info("job started", nil)

	slices, err := w.fetchDay(ctx, date, logger)
	if err != nil {
		logger.Error("download failed", map[string]any{"error": err.Error()})
		return failureOutcome(date, types.FailureDownload, err.Error(), start)
	}

	agg, err := w.Aggregator.Daily(date, slices)
	if err != nil {
		w.Metrics.IncAggregationFailure()
		logger.Error("aggregation failed", map[string]any{"error": err.Error()})
		return failureOutcome(date, types.FailureAggregation, err.Error(), start)
	}

	if v := aggregate.Validate(agg, w.Rules); v != nil {
		w.Metrics.IncValidationFailure()
		logger.Error("validation failed", map[string]any{
			"rule":     v.Rule,
			"variable": v.Variable,
			"detail":   v.Message,
		})
		return failureOutcome(date, types.FailureValidation, v.Error(), start)
	}

	if err := w.Store.WriteDaily(agg); err != nil {
		w.Metrics.IncPersistFailure()
		logger.Error("persist failed", map[string]any{"error": err.Error()})
		return failureOutcome(date, types.FailureAggregation,
			fmt.Sprintf("persisting aggregate: %v", err), start)
	}

	logger.Info("job succeeded", map[string]any{
		"variables":   len(agg.Values),
		"cells":       agg.Cells,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return successOutcome(date, false, start)
}

// fetchDay downloads the date's hourly slices in hour order, aborting on
// the first failure. A day is only usable with all 24 hours present.
func (w *DayWorker) fetchDay(ctx context.Context, date types.Date, logger *log.Logger) ([]*types.HourlySlice, error) {
	slices := make([]*types.HourlySlice, 0, types.HoursPerDay)
	for hour := 0; hour < types.HoursPerDay; hour++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch aborted at hour %02d: %w", hour, err)
		}
		slice, err := w.Archive.FetchHour(ctx, date, hour)
		if err != nil {
			w.Metrics.IncFetchFailure()
			return nil, fmt.Errorf("hour %02d: %w", hour, err)
		}
		w.Metrics.IncSliceFetched()
		slices = append(slices, slice)
	}
	logger.Debug("all hourly slices fetched", map[string]any{"hours": len(slices)})
	return slices, nil
}

// dateLogger returns the worker's logger scoped to the date, redirected
// to the per-date log file when LogDir is configured, plus a close func
// for the underlying file. File open failures degrade to the shared
// stream rather than failing the job.
func (w *DayWorker) dateLogger(date types.Date) (*log.Logger, func()) {
	logger := w.Logger.WithDate(date)
	if w.LogDir == "" {
		return logger, func() {}
	}
	f, err := log.DateLogFile(w.LogDir, date)
	if err != nil {
		logger.Warn("per-date log unavailable", map[string]any{"error": err.Error()})
		return logger, func() {}
	}
	return logger.WithOutput(f), func() { _ = f.Close() }
}
