package runtime

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isohyet-io/isohyet/log"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/types"
)

func testLogger() *log.Logger {
	return log.NewLogger("test-pass", 1).WithOutput(io.Discard)
}

func mustDate(t *testing.T, s string) types.Date {
	t.Helper()
	d, err := types.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func dateRange(t *testing.T, start, end string) []types.Date {
	t.Helper()
	dates := types.DateRange(mustDate(t, start), mustDate(t, end))
	if dates == nil {
		t.Fatalf("bad range %s..%s", start, end)
	}
	return dates
}

// scriptedWorker is a Worker whose outcomes are scripted per date. It
// tracks the peak number of concurrent Run calls.
type scriptedWorker struct {
	mu    sync.Mutex
	fail  map[types.Date]types.FailureKind
	runs  map[types.Date]int
	delay time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func newScriptedWorker(delay time.Duration) *scriptedWorker {
	return &scriptedWorker{
		fail:  make(map[types.Date]types.FailureKind),
		runs:  make(map[types.Date]int),
		delay: delay,
	}
}

func (w *scriptedWorker) failWith(date types.Date, kind types.FailureKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail[date] = kind
}

func (w *scriptedWorker) recover(date types.Date) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.fail, date)
}

func (w *scriptedWorker) runCount(date types.Date) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs[date]
}

func (w *scriptedWorker) Run(ctx context.Context, date types.Date) Outcome {
	n := w.inFlight.Add(1)
	for {
		peak := w.maxInFlight.Load()
		if n <= peak || w.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	defer w.inFlight.Add(-1)

	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
		}
	}

	w.mu.Lock()
	w.runs[date]++
	kind, failed := w.fail[date]
	w.mu.Unlock()

	start := time.Now()
	if failed {
		return failureOutcome(date, kind, "scripted failure", start)
	}
	return successOutcome(date, false, start)
}

// memLedger is an in-memory Ledger recording every Write.
type memLedger struct {
	mu      sync.Mutex
	records []types.FailureRecord
	writes  int
	fail    error
}

func (l *memLedger) Read() ([]types.FailureRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.FailureRecord(nil), l.records...), nil
}

func (l *memLedger) Write(records []types.FailureRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return l.fail
	}
	l.records = append([]types.FailureRecord(nil), records...)
	l.writes++
	return nil
}

func newScheduler(concurrency int, worker Worker, ledger *memLedger) *Scheduler {
	return NewScheduler(
		SchedulerConfig{Concurrency: concurrency},
		worker, ledger,
		metrics.NewCollector("test-pass", 1),
		testLogger(),
	)
}

func TestScheduler_EveryDateGetsOneTerminalOutcome(t *testing.T) {
	dates := dateRange(t, "1988-04-01", "1988-04-10")
	worker := newScriptedWorker(0)
	worker.failWith(mustDate(t, "1988-04-03"), types.FailureDownload)
	worker.failWith(mustDate(t, "1988-04-07"), types.FailureValidation)
	ledger := &memLedger{}

	result, err := newScheduler(3, worker, ledger).Run(t.Context(), dates)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Outcomes) != len(dates) {
		t.Fatalf("expected %d outcomes, got %d", len(dates), len(result.Outcomes))
	}
	for _, d := range dates {
		o, ok := result.Outcomes[d]
		if !ok {
			t.Errorf("no outcome for %s", d)
			continue
		}
		if o.State != types.JobSucceeded && o.State != types.JobFailed {
			t.Errorf("%s has non-terminal state %s", d, o.State)
		}
		if worker.runCount(d) != 1 {
			t.Errorf("%s dispatched %d times", d, worker.runCount(d))
		}
	}
	if result.Succeeded+result.Failed != int64(len(dates)) {
		t.Errorf("succeeded %d + failed %d != %d", result.Succeeded, result.Failed, len(dates))
	}
	if result.Failed != 2 {
		t.Errorf("failed = %d, want 2", result.Failed)
	}
}

func TestScheduler_LedgerHoldsExactlyTheFailedDates(t *testing.T) {
	dates := dateRange(t, "1988-04-01", "1988-04-05")
	worker := newScriptedWorker(0)
	worker.failWith(mustDate(t, "1988-04-02"), types.FailureDownload)
	worker.failWith(mustDate(t, "1988-04-04"), types.FailureAggregation)
	ledger := &memLedger{}

	if _, err := newScheduler(2, worker, ledger).Run(t.Context(), dates); err != nil {
		t.Fatal(err)
	}

	records, _ := ledger.Read()
	if len(records) != 2 {
		t.Fatalf("ledger has %d records, want 2", len(records))
	}
	if records[0].Date.String() != "1988-04-02" || records[0].Kind != types.FailureDownload {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Date.String() != "1988-04-04" || records[1].Kind != types.FailureAggregation {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestScheduler_AllSucceededWritesEmptyLedger(t *testing.T) {
	dates := dateRange(t, "1988-04-01", "1988-04-03")
	ledger := &memLedger{records: []types.FailureRecord{
		{Date: mustDate(t, "1987-01-01"), Kind: types.FailureDownload},
	}}

	if _, err := newScheduler(2, newScriptedWorker(0), ledger).Run(t.Context(), dates); err != nil {
		t.Fatal(err)
	}

	records, _ := ledger.Read()
	if len(records) != 0 {
		t.Errorf("stale ledger records survived a clean pass: %+v", records)
	}
	if ledger.writes != 1 {
		t.Errorf("ledger written %d times, want 1", ledger.writes)
	}
}

func TestScheduler_ConcurrencyCap(t *testing.T) {
	for _, limit := range []int{1, 2, 16} {
		worker := newScriptedWorker(10 * time.Millisecond)
		dates := dateRange(t, "1988-04-01", "1988-04-08")

		if _, err := newScheduler(limit, worker, &memLedger{}).Run(t.Context(), dates); err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}

		peak := worker.maxInFlight.Load()
		if peak > int64(limit) {
			t.Errorf("limit %d: observed %d jobs in flight", limit, peak)
		}
		if limit >= len(dates) && peak < 2 {
			t.Errorf("limit %d: expected parallel dispatch, peak was %d", limit, peak)
		}
	}
}

func TestScheduler_CancellationLeavesLedgerUntouched(t *testing.T) {
	prior := []types.FailureRecord{{Date: mustDate(t, "1987-01-01"), Kind: types.FailureDownload}}
	ledger := &memLedger{records: append([]types.FailureRecord(nil), prior...)}
	worker := newScriptedWorker(50 * time.Millisecond)
	dates := dateRange(t, "1988-04-01", "1988-04-20")

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := newScheduler(1, worker, ledger).Run(ctx, dates)
	if err == nil {
		t.Fatal("expected context error")
	}

	records, _ := ledger.Read()
	if len(records) != 1 || records[0].Date != prior[0].Date {
		t.Errorf("ledger modified on cancellation: %+v", records)
	}
	if ledger.writes != 0 {
		t.Errorf("ledger written %d times during canceled pass", ledger.writes)
	}
}

func TestScheduler_LedgerWriteFailureIsFatal(t *testing.T) {
	ledger := &memLedger{fail: io.ErrClosedPipe}
	worker := newScriptedWorker(0)
	worker.failWith(mustDate(t, "1988-04-01"), types.FailureDownload)

	_, err := newScheduler(1, worker, ledger).Run(t.Context(), dateRange(t, "1988-04-01", "1988-04-02"))
	if err == nil {
		t.Fatal("expected error when ledger cannot be written")
	}
}

func TestBuildPassReport(t *testing.T) {
	dates := dateRange(t, "1988-04-01", "1988-04-03")
	worker := newScriptedWorker(0)
	worker.failWith(mustDate(t, "1988-04-02"), types.FailureValidation)
	collector := metrics.NewCollector("pass-1", 1)

	scheduler := NewScheduler(SchedulerConfig{Concurrency: 2}, worker, &memLedger{}, collector, testLogger())
	result, err := scheduler.Run(t.Context(), dates)
	if err != nil {
		t.Fatal(err)
	}

	report := BuildPassReport("pass-1", PassKindInitial, 1, 1, result, collector.Snapshot())
	if report.DatesTotal != 3 || report.Failed != 1 {
		t.Errorf("report counts: %+v", report)
	}
	if len(report.Jobs) != 3 {
		t.Fatalf("expected 3 job lines, got %d", len(report.Jobs))
	}
	if report.Jobs[0].Date != "1988-04-01" || report.Jobs[2].Date != "1988-04-03" {
		t.Errorf("jobs not in date order: %v", report.Jobs)
	}
	if report.Jobs[1].Kind != types.FailureValidation {
		t.Errorf("failed job line = %+v", report.Jobs[1])
	}
	if report.Metrics == nil || report.Metrics.JobsStarted != 3 {
		t.Errorf("metrics snapshot = %+v", report.Metrics)
	}
}
