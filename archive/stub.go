package archive

import (
	"context"
	"sync"

	"github.com/isohyet-io/isohyet/types"
)

// StubClient is an in-memory archive for tests.
// Slices are seeded with Put; failures are scripted with FailDate/FailHour.
type StubClient struct {
	mu       sync.Mutex
	slices   map[sliceKey]*types.HourlySlice
	failures map[sliceKey]error
	dayFail  map[types.Date]error
	fetches  int
}

type sliceKey struct {
	date types.Date
	hour int
}

// NewStubClient creates an empty stub archive.
func NewStubClient() *StubClient {
	return &StubClient{
		slices:   make(map[sliceKey]*types.HourlySlice),
		failures: make(map[sliceKey]error),
		dayFail:  make(map[types.Date]error),
	}
}

// Put seeds one hourly slice.
func (c *StubClient) Put(slice *types.HourlySlice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slices[sliceKey{slice.Date, slice.Hour}] = slice
}

// PutDay seeds a full 24-hour day where every variable holds the given
// constant value in every cell.
func (c *StubClient) PutDay(date types.Date, cells int, values map[string]float64) {
	for hour := 0; hour < types.HoursPerDay; hour++ {
		grids := make(map[string][]float64, len(values))
		for name, v := range values {
			grid := make([]float64, cells)
			for i := range grid {
				grid[i] = v
			}
			grids[name] = grid
		}
		c.Put(&types.HourlySlice{Date: date, Hour: hour, Values: grids})
	}
}

// FailHour scripts a failure for one specific hour.
func (c *StubClient) FailHour(date types.Date, hour int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[sliceKey{date, hour}] = err
}

// FailDate scripts a failure for every hour of a date.
func (c *StubClient) FailDate(date types.Date, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dayFail[date] = err
}

// ClearFailures removes all scripted failures, e.g. between the initial
// and retry pass of a test scenario.
func (c *StubClient) ClearFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = make(map[sliceKey]error)
	c.dayFail = make(map[types.Date]error)
}

// Fetches returns the total number of FetchHour calls observed.
func (c *StubClient) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// FetchHour implements Client.
func (c *StubClient) FetchHour(ctx context.Context, date types.Date, hour int) (*types.HourlySlice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++

	key := sliceKey{date, hour}
	if err, ok := c.dayFail[date]; ok {
		return nil, &FetchError{Kind: classifyError(err), Key: ObjectKey("", date, hour), Err: err}
	}
	if err, ok := c.failures[key]; ok {
		return nil, &FetchError{Kind: classifyError(err), Key: ObjectKey("", date, hour), Err: err}
	}
	slice, ok := c.slices[key]
	if !ok {
		return nil, &FetchError{Kind: ErrNotFound, Key: ObjectKey("", date, hour), Err: ErrNotFound}
	}
	return slice, nil
}

// Close implements Client.
func (c *StubClient) Close() error { return nil }

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
