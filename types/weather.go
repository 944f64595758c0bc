package types

import "fmt"

// HoursPerDay is the number of hourly slices that make up one daily record.
const HoursPerDay = 24

// AggMethod is how 24 hourly values collapse into one daily value.
type AggMethod string

const (
	// AggMean averages hourly values; used for intensive variables such as
	// temperature or pressure.
	AggMean AggMethod = "mean"
	// AggSum totals hourly values; used for extensive variables such as
	// accumulated precipitation.
	AggSum AggMethod = "sum"
)

// Valid reports whether m is a known aggregation method.
func (m AggMethod) Valid() bool {
	return m == AggMean || m == AggSum
}

// UnmarshalYAML parses and validates an aggregation method from config.
func (m *AggMethod) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed := AggMethod(s)
	if !parsed.Valid() {
		return fmt.Errorf("invalid aggregation method %q (must be mean or sum)", s)
	}
	*m = parsed
	return nil
}

// HourlySlice is one hour of gridded archive data for a single day.
// Values maps variable name to the flattened grid for that hour; every
// variable in a slice must share the same grid length.
type HourlySlice struct {
	Date   Date                 `msgpack:"date"`
	Hour   int                  `msgpack:"hour"`
	Values map[string][]float64 `msgpack:"values"`
}

// DailyAggregate is the in-memory result of collapsing 24 hourly slices.
// Values maps variable name to the daily grid, each cell aggregated by the
// variable's declared method. Cells is the shared grid length.
type DailyAggregate struct {
	Date   Date
	Cells  int
	Values map[string][]float64
	// Methods records the aggregation method used per variable, including
	// derived variables (which carry AggMean by convention).
	Methods map[string]AggMethod
}
