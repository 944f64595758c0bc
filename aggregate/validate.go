package aggregate

import (
	"fmt"
	"math"

	"github.com/isohyet-io/isohyet/config"
	"github.com/isohyet-io/isohyet/types"
)

// dewpointTolerance absorbs floating point noise in the dewpoint vs
// temperature comparison.
const dewpointTolerance = 1e-3

// Rule is a pure predicate over a daily aggregate. Check returns nil when
// the aggregate is plausible, or a *Violation describing the first failing
// cell otherwise.
type Rule interface {
	Check(agg *types.DailyAggregate) *Violation
	// Describe returns a short human-readable rule description for logs.
	Describe() string
}

// Violation reports why an aggregate failed validation.
type Violation struct {
	Rule     string
	Variable string
	Message  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("validation rule %s failed for %s: %s", v.Rule, v.Variable, v.Message)
}

// RangeRule bounds a variable's daily values. A nil bound is unchecked.
// NaN cells (masked grid points) are skipped, matching archive conventions
// for water bodies and missing sensors.
type RangeRule struct {
	Variable string
	Min      *float64
	Max      *float64
}

// Check implements Rule. A rule over a variable absent from the aggregate
// passes vacuously; presence is the aggregator's concern.
func (r *RangeRule) Check(agg *types.DailyAggregate) *Violation {
	grid, ok := agg.Values[r.Variable]
	if !ok {
		return nil
	}
	for i, v := range grid {
		if math.IsNaN(v) {
			continue
		}
		if r.Min != nil && v < *r.Min {
			return &Violation{
				Rule:     "range",
				Variable: r.Variable,
				Message:  fmt.Sprintf("cell %d value %g below minimum %g", i, v, *r.Min),
			}
		}
		if r.Max != nil && v > *r.Max {
			return &Violation{
				Rule:     "range",
				Variable: r.Variable,
				Message:  fmt.Sprintf("cell %d value %g above maximum %g", i, v, *r.Max),
			}
		}
	}
	return nil
}

// Describe implements Rule.
func (r *RangeRule) Describe() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%s in [%g, %g]", r.Variable, *r.Min, *r.Max)
	case r.Min != nil:
		return fmt.Sprintf("%s >= %g", r.Variable, *r.Min)
	default:
		return fmt.Sprintf("%s <= %g", r.Variable, *r.Max)
	}
}

// DewpointRule checks the internal consistency constraint that dewpoint
// never exceeds air temperature.
type DewpointRule struct {
	Dewpoint    string
	Temperature string
}

// Check implements Rule.
func (r *DewpointRule) Check(agg *types.DailyAggregate) *Violation {
	dew, okDew := agg.Values[r.Dewpoint]
	temp, okTemp := agg.Values[r.Temperature]
	if !okDew || !okTemp || len(dew) != len(temp) {
		return nil
	}
	for i := range dew {
		if math.IsNaN(dew[i]) || math.IsNaN(temp[i]) {
			continue
		}
		if dew[i] > temp[i]+dewpointTolerance {
			return &Violation{
				Rule:     "dewpoint",
				Variable: r.Dewpoint,
				Message: fmt.Sprintf("cell %d dewpoint %g exceeds temperature %g",
					i, dew[i], temp[i]),
			}
		}
	}
	return nil
}

// Describe implements Rule.
func (r *DewpointRule) Describe() string {
	return fmt.Sprintf("%s <= %s", r.Dewpoint, r.Temperature)
}

// RulesFromConfig builds the rule set declared in config.
func RulesFromConfig(cfg config.ValidationConfig) []Rule {
	rules := make([]Rule, 0, len(cfg.Ranges)+1)
	for _, rc := range cfg.Ranges {
		rules = append(rules, &RangeRule{Variable: rc.Variable, Min: rc.Min, Max: rc.Max})
	}
	if cfg.DewpointRule != nil {
		rules = append(rules, &DewpointRule{
			Dewpoint:    cfg.DewpointRule.Dewpoint,
			Temperature: cfg.DewpointRule.Temperature,
		})
	}
	return rules
}

// Validate runs every rule against the aggregate, returning the first
// violation found.
func Validate(agg *types.DailyAggregate, rules []Rule) *Violation {
	for _, rule := range rules {
		if v := rule.Check(agg); v != nil {
			return v
		}
	}
	return nil
}
