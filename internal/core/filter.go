package core

// Filter restricts a record sequence by inclusive numeric ranges.
// A nil bound is unbounded.
type Filter struct {
	MinConsumption *float64
	MaxConsumption *float64
	MinCost        *float64
	MaxCost        *float64
}

// IsZero reports whether the filter has no bound at all.
func (f Filter) IsZero() bool {
	return f.MinConsumption == nil && f.MaxConsumption == nil &&
		f.MinCost == nil && f.MaxCost == nil
}

// Match reports whether r satisfies every bound.
func (f Filter) Match(r Record) bool {
	if f.MinConsumption != nil && r.Consumption < *f.MinConsumption {
		return false
	}
	if f.MaxConsumption != nil && r.Consumption > *f.MaxConsumption {
		return false
	}
	if f.MinCost != nil && r.Cost < *f.MinCost {
		return false
	}
	if f.MaxCost != nil && r.Cost > *f.MaxCost {
		return false
	}
	return true
}

// Apply returns the matching records, in input order. The input is not modified.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
