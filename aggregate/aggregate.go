// Package aggregate collapses 24 hourly slices into one daily record and
// validates the result against physical plausibility rules.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/isohyet-io/isohyet/types"
)

// Aggregator collapses hourly slices per the configured variable methods
// and computes any enabled derived variables. It is stateless after
// construction and safe for concurrent use.
type Aggregator struct {
	variables map[string]types.AggMethod
	derived   []Derivation
}

// NewAggregator creates an Aggregator for the given variable methods and
// enabled derived-variable names. Unknown derived names are an error so a
// config typo fails at startup rather than silently dropping a variable.
func NewAggregator(variables map[string]types.AggMethod, derivedNames []string) (*Aggregator, error) {
	if len(variables) == 0 {
		return nil, fmt.Errorf("aggregator requires at least one variable")
	}

	derived := make([]Derivation, 0, len(derivedNames))
	for _, name := range derivedNames {
		d, ok := LookupDerivation(name)
		if !ok {
			return nil, fmt.Errorf("unknown derived variable %q", name)
		}
		derived = append(derived, d)
	}

	return &Aggregator{variables: variables, derived: derived}, nil
}

// Daily collapses exactly 24 hourly slices into one daily aggregate.
// Slices may arrive in any hour order. Errors here are aggregation errors:
// the download completed but the slices cannot be combined.
func (a *Aggregator) Daily(date types.Date, slices []*types.HourlySlice) (*types.DailyAggregate, error) {
	if len(slices) != types.HoursPerDay {
		return nil, fmt.Errorf("expected %d hourly slices for %s, got %d",
			types.HoursPerDay, date, len(slices))
	}

	byHour := make(map[int]*types.HourlySlice, types.HoursPerDay)
	for _, s := range slices {
		if s.Date != date {
			return nil, fmt.Errorf("slice for %s mixed into day %s", s.Date, date)
		}
		if s.Hour < 0 || s.Hour >= types.HoursPerDay {
			return nil, fmt.Errorf("slice hour %d out of range for %s", s.Hour, date)
		}
		if _, dup := byHour[s.Hour]; dup {
			return nil, fmt.Errorf("duplicate slice for %s hour %02d", date, s.Hour)
		}
		byHour[s.Hour] = s
	}

	cells, err := a.gridCells(date, byHour)
	if err != nil {
		return nil, err
	}

	values := make(map[string][]float64, len(a.variables)+len(a.derived))
	methods := make(map[string]types.AggMethod, len(a.variables)+len(a.derived))

	for _, name := range a.variableNames() {
		method := a.variables[name]
		daily := make([]float64, cells)
		for hour := 0; hour < types.HoursPerDay; hour++ {
			grid, ok := byHour[hour].Values[name]
			if !ok {
				return nil, fmt.Errorf("variable %s missing from %s hour %02d", name, date, hour)
			}
			for i, v := range grid {
				daily[i] += v
			}
		}
		if method == types.AggMean {
			for i := range daily {
				daily[i] /= types.HoursPerDay
			}
		}
		values[name] = daily
		methods[name] = method
	}

	for _, d := range a.derived {
		grid, err := d.Compute(values, cells)
		if err != nil {
			return nil, fmt.Errorf("derived variable %s: %w", d.Name, err)
		}
		values[d.Name] = grid
		methods[d.Name] = types.AggMean
	}

	return &types.DailyAggregate{
		Date:    date,
		Cells:   cells,
		Values:  values,
		Methods: methods,
	}, nil
}

// gridCells determines the shared grid length across all hours and
// configured variables, rejecting shape mismatches.
func (a *Aggregator) gridCells(date types.Date, byHour map[int]*types.HourlySlice) (int, error) {
	cells := -1
	for hour := 0; hour < types.HoursPerDay; hour++ {
		for name := range a.variables {
			grid, ok := byHour[hour].Values[name]
			if !ok {
				return 0, fmt.Errorf("variable %s missing from %s hour %02d", name, date, hour)
			}
			if cells == -1 {
				cells = len(grid)
			} else if len(grid) != cells {
				return 0, fmt.Errorf("variable %s has %d cells at %s hour %02d, expected %d",
					name, len(grid), date, hour, cells)
			}
		}
	}
	if cells <= 0 {
		return 0, fmt.Errorf("empty grids for %s", date)
	}
	return cells, nil
}

func (a *Aggregator) variableNames() []string {
	names := make([]string, 0, len(a.variables))
	for name := range a.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
