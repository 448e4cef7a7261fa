package core

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// SortOrder is the direction of a view sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortSpec names a canonical field and a direction. The zero value keeps
// sequence order.
type SortSpec struct {
	Field string
	Order SortOrder
}

// Valid reports whether s names a sortable field.
func (s SortSpec) Valid() bool {
	return slices.Contains(Fields, s.Field)
}

// Toggle returns the sort a click on field's column header should produce.
func (s SortSpec) Toggle(field string) SortSpec {
	if s.Field == field && s.Order == SortAsc {
		return SortSpec{Field: field, Order: SortDesc}
	}
	return SortSpec{Field: field, Order: SortAsc}
}

// Sorted returns a sorted copy of records. Ties keep sequence order.
func Sorted(records []Record, spec SortSpec) []Record {
	out := CloneRecords(records)
	if !spec.Valid() {
		return out
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		c := compareField(a, b, spec.Field)
		if spec.Order == SortDesc {
			return -c
		}
		return c
	})
	return out
}

func compareField(a, b Record, field string) int {
	switch field {
	case FieldID:
		return strings.Compare(a.ID, b.ID)
	case FieldPeriod:
		return comparePeriods(a.Period, b.Period)
	case FieldConsumption:
		return cmp.Compare(a.Consumption, b.Consumption)
	case FieldCost:
		return cmp.Compare(a.Cost, b.Cost)
	case FieldSaved:
		return cmp.Compare(a.Saved, b.Saved)
	case FieldMoneySaved:
		return cmp.Compare(a.MoneySaved, b.MoneySaved)
	case FieldSavingsPercentage:
		return cmp.Compare(a.SavingsPercentage, b.SavingsPercentage)
	}
	return 0
}

// comparePeriods orders month labels chronologically. Labels that are not
// in PeriodLabel's layout sort after those that are, by plain text.
func comparePeriods(a, b string) int {
	ta, errA := time.Parse(periodLayout, strings.TrimSpace(a))
	tb, errB := time.Parse(periodLayout, strings.TrimSpace(b))
	switch {
	case errA == nil && errB == nil:
		return ta.Compare(tb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
