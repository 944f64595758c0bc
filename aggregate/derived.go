package aggregate

import (
	"fmt"
	"math"
)

// Derivation computes one derived variable from already-aggregated daily
// grids. Derived variables are computed after the per-variable collapse,
// cell by cell, and always carry the mean method in stored records.
type Derivation struct {
	// Name is the derived variable's name in the daily aggregate.
	Name string
	// DependsOn lists the input variables that must be present.
	DependsOn []string
	// Compute produces the derived grid from the input grids.
	Compute func(values map[string][]float64, cells int) ([]float64, error)
}

// derivations is the registry of known derived-variable computations.
// Config selects from these by name.
var derivations = map[string]Derivation{
	"wind10": {
		Name:      "wind10",
		DependsOn: []string{"u10", "v10"},
		Compute: func(values map[string][]float64, cells int) ([]float64, error) {
			u, v := values["u10"], values["v10"]
			if u == nil || v == nil {
				return nil, fmt.Errorf("requires u10 and v10")
			}
			grid := make([]float64, cells)
			for i := range grid {
				grid[i] = math.Sqrt(u[i]*u[i] + v[i]*v[i])
			}
			return grid, nil
		},
	},
}

// LookupDerivation returns the registered derivation for name.
func LookupDerivation(name string) (Derivation, bool) {
	d, ok := derivations[name]
	return d, ok
}
