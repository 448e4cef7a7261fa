package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSorted(t *testing.T) {
	records := []Record{
		{ID: "a", Period: "March 2025", Consumption: 900},
		{ID: "b", Period: "January 2025", Consumption: 1100},
		{ID: "c", Period: "February 2025", Consumption: 900},
	}

	asc := Sorted(records, SortSpec{Field: FieldConsumption, Order: SortAsc})
	assert.Equal(t, "a", asc[0].ID, "ties keep sequence order")
	assert.Equal(t, "c", asc[1].ID)
	assert.Equal(t, "b", asc[2].ID)

	desc := Sorted(records, SortSpec{Field: FieldPeriod, Order: SortDesc})
	assert.Equal(t, "a", desc[0].ID)
	assert.Equal(t, "c", desc[1].ID)
	assert.Equal(t, "b", desc[2].ID)

	unsorted := Sorted(records, SortSpec{Field: "bogus"})
	assert.Equal(t, records, unsorted)
	assert.Equal(t, "a", records[0].ID, "input must not change")
}

func TestSortedPeriodsAreChronological(t *testing.T) {
	records := []Record{
		{ID: "free", Period: "Winter"},
		{ID: "dec", Period: "December 2024"},
		{ID: "apr", Period: "April 2025"},
		{ID: "jan", Period: "January 2025"},
		{ID: "spring", Period: "Spring"},
	}

	var ids []string
	for _, r := range Sorted(records, SortSpec{Field: FieldPeriod, Order: SortAsc}) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"dec", "jan", "apr", "spring", "free"}, ids)
}

func TestSortSpecToggle(t *testing.T) {
	s := SortSpec{}.Toggle(FieldCost)
	assert.Equal(t, SortSpec{Field: FieldCost, Order: SortAsc}, s)
	assert.Equal(t, SortDesc, s.Toggle(FieldCost).Order)
	assert.Equal(t, SortAsc, s.Toggle(FieldCost).Toggle(FieldCost).Order)
	assert.Equal(t, SortSpec{Field: FieldSaved, Order: SortAsc}, s.Toggle(FieldSaved))
}
