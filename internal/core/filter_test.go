package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterApply(t *testing.T) {
	records := []Record{
		{ID: "a", Consumption: 800, Cost: 96},
		{ID: "b", Consumption: 1000, Cost: 120},
		{ID: "c", Consumption: 1200, Cost: 144},
	}

	ids := func(rs []Record) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(Filter{}.Apply(records)))
	assert.Equal(t, []string{"b"}, ids(Filter{MinConsumption: Ptr(1000.0), MaxConsumption: Ptr(1000.0)}.Apply(records)), "bounds are inclusive")
	assert.Equal(t, []string{"a", "b"}, ids(Filter{MaxCost: Ptr(120.0)}.Apply(records)))
	assert.Equal(t, []string{"c"}, ids(Filter{MinCost: Ptr(121.0)}.Apply(records)))
	assert.Empty(t, Filter{MinConsumption: Ptr(2000.0)}.Apply(records))
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{MaxCost: Ptr(0.0)}.IsZero())
}
