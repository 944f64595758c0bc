package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/isohyet-io/isohyet/aggregate"
	"github.com/isohyet-io/isohyet/archive"
	"github.com/isohyet-io/isohyet/metrics"
	"github.com/isohyet-io/isohyet/store"
	"github.com/isohyet-io/isohyet/types"
)

func fmin(v float64) *float64 { return &v }

// testWorker wires a DayWorker over the in-memory archive and a Parquet
// store in a temp dir, with the standard precipitation and temperature
// rules.
func testWorker(t *testing.T) (*DayWorker, *archive.StubClient, *store.ParquetStore) {
	t.Helper()

	client := archive.NewStubClient()
	agg, err := aggregate.NewAggregator(map[string]types.AggMethod{
		"t2":        types.AggMean,
		"acrainlsm": types.AggSum,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	pstore := store.NewParquetStore(t.TempDir())

	worker := &DayWorker{
		Archive:    client,
		Aggregator: agg,
		Rules: []aggregate.Rule{
			&aggregate.RangeRule{Variable: "t2", Min: fmin(220), Max: fmin(330)},
			&aggregate.RangeRule{Variable: "acrainlsm", Min: fmin(-1)},
		},
		Store:   pstore,
		Metrics: metrics.NewCollector("test-pass", 1),
		Logger:  testLogger(),
	}
	return worker, client, pstore
}

func TestDayWorker_SuccessPersistsAggregate(t *testing.T) {
	worker, client, pstore := testWorker(t)
	date := mustDate(t, "1988-04-01")
	client.PutDay(date, 3, map[string]float64{"t2": 281, "acrainlsm": 0.5})

	o := worker.Run(t.Context(), date)
	if !o.Succeeded() || o.Skipped {
		t.Fatalf("outcome = %+v", o)
	}

	agg, err := pstore.Read(date)
	if err != nil {
		t.Fatalf("aggregate not readable after success: %v", err)
	}
	if math.Abs(agg.Values["t2"][0]-281) > 1e-9 {
		t.Errorf("t2 mean = %g, want 281", agg.Values["t2"][0])
	}
	if math.Abs(agg.Values["acrainlsm"][0]-12) > 1e-9 {
		t.Errorf("acrainlsm sum = %g, want 12", agg.Values["acrainlsm"][0])
	}
}

func TestDayWorker_ExistingAggregateSkips(t *testing.T) {
	worker, client, _ := testWorker(t)
	date := mustDate(t, "1988-04-01")
	client.PutDay(date, 2, map[string]float64{"t2": 281, "acrainlsm": 0})

	first := worker.Run(t.Context(), date)
	if !first.Succeeded() {
		t.Fatalf("first run failed: %+v", first)
	}
	fetchesAfterFirst := client.Fetches()

	second := worker.Run(t.Context(), date)
	if !second.Succeeded() || !second.Skipped {
		t.Fatalf("second run should skip: %+v", second)
	}
	if client.Fetches() != fetchesAfterFirst {
		t.Errorf("skip still fetched slices: %d -> %d", fetchesAfterFirst, client.Fetches())
	}
}

func TestDayWorker_MissingHourIsDownloadError(t *testing.T) {
	worker, client, pstore := testWorker(t)
	date := mustDate(t, "1988-04-01")
	client.PutDay(date, 2, map[string]float64{"t2": 281, "acrainlsm": 0})
	client.FailHour(date, 13, errors.New("NoSuchKey: missing slice"))

	o := worker.Run(t.Context(), date)
	if !o.Failed() || o.Kind != types.FailureDownload {
		t.Fatalf("outcome = %+v", o)
	}

	if ok, _ := pstore.Exists(date); ok {
		t.Error("aggregate persisted despite incomplete download")
	}
	// Fetching stops at the first missing hour.
	if client.Fetches() > 14 {
		t.Errorf("fetched %d slices after failure at hour 13", client.Fetches())
	}
}

func TestDayWorker_ImplausibleDayIsDiscarded(t *testing.T) {
	worker, client, pstore := testWorker(t)
	date := mustDate(t, "1988-04-01")
	// Negative precipitation per hour sums far below the -1 floor.
	client.PutDay(date, 2, map[string]float64{"t2": 281, "acrainlsm": -2})

	o := worker.Run(t.Context(), date)
	if !o.Failed() || o.Kind != types.FailureValidation {
		t.Fatalf("outcome = %+v", o)
	}

	if ok, _ := pstore.Exists(date); ok {
		t.Error("implausible aggregate persisted")
	}
	snap := worker.Metrics.Snapshot()
	if snap.ValidationFailures != 1 {
		t.Errorf("validation failures = %d", snap.ValidationFailures)
	}
}

func TestDayWorker_ShapeMismatchIsAggregationError(t *testing.T) {
	worker, client, _ := testWorker(t)
	date := mustDate(t, "1988-04-01")
	client.PutDay(date, 2, map[string]float64{"t2": 281, "acrainlsm": 0})
	client.Put(&types.HourlySlice{
		Date: date,
		Hour: 9,
		Values: map[string][]float64{
			"t2":        {281, 281, 281},
			"acrainlsm": {0, 0, 0},
		},
	})

	o := worker.Run(t.Context(), date)
	if !o.Failed() || o.Kind != types.FailureAggregation {
		t.Fatalf("outcome = %+v", o)
	}
}
