package core

import (
	"strings"
	"time"
)

// Canonical field names, in the order every export and API payload uses.
const (
	FieldID                = "id"
	FieldPeriod            = "period"
	FieldConsumption       = "consumption"
	FieldCost              = "cost"
	FieldSaved             = "saved"
	FieldMoneySaved        = "moneySaved"
	FieldSavingsPercentage = "savingsPercentage"
)

// Fields lists the canonical field names in canonical order.
var Fields = []string{
	FieldID,
	FieldPeriod,
	FieldConsumption,
	FieldCost,
	FieldSaved,
	FieldMoneySaved,
	FieldSavingsPercentage,
}

type (
	// Record is one monthly energy entry.
	Record struct {
		ID                string  `json:"id" xml:"id"`
		Period            string  `json:"period" xml:"period"`
		Consumption       float64 `json:"consumption" xml:"consumption"`              // kWh
		Cost              float64 `json:"cost" xml:"cost"`                            // currency units
		Saved             float64 `json:"saved" xml:"saved"`                          // kWh
		MoneySaved        float64 `json:"moneySaved" xml:"moneySaved"`                // currency units
		SavingsPercentage float64 `json:"savingsPercentage" xml:"savingsPercentage"` // derived
	}

	// RecordFields is a partial update over the mutable fields of a Record.
	// Nil means "leave unchanged".
	RecordFields struct {
		Period      *string
		Consumption *float64
		Cost        *float64
		Saved       *float64
		MoneySaved  *float64
	}

	// CommitInfo describes one persisted snapshot of the working set.
	CommitInfo struct {
		ID          int64
		CommittedAt time.Time
		RecordCount int
	}
)

// Empty reports whether no field is set.
func (f RecordFields) Empty() bool {
	return f.Period == nil && f.Consumption == nil && f.Cost == nil &&
		f.Saved == nil && f.MoneySaved == nil
}

// Validate checks the fields that are present. Absent fields are not checked.
func (f RecordFields) Validate() error {
	if f.Period != nil && strings.TrimSpace(*f.Period) == "" {
		return NewValidationError(FieldPeriod, *f.Period, "period cannot be empty")
	}
	for _, n := range []struct {
		field string
		value *float64
	}{
		{FieldConsumption, f.Consumption},
		{FieldCost, f.Cost},
		{FieldSaved, f.Saved},
		{FieldMoneySaved, f.MoneySaved},
	} {
		if n.value != nil && *n.value < 0 {
			return NewValidationError(n.field, *n.value, "must not be negative")
		}
	}
	return nil
}

// ValidateNew checks fields submitted for a brand new record: the period is
// required and consumption must be positive.
func (f RecordFields) ValidateNew() error {
	if f.Period == nil {
		return NewValidationError(FieldPeriod, "", "period is required")
	}
	if f.Consumption == nil || *f.Consumption <= 0 {
		var v any
		if f.Consumption != nil {
			v = *f.Consumption
		}
		return NewValidationError(FieldConsumption, v, "consumption must be greater than zero")
	}
	return f.Validate()
}

// Apply returns r with every present field overwritten.
func (f RecordFields) Apply(r Record) Record {
	if f.Period != nil {
		r.Period = strings.TrimSpace(*f.Period)
	}
	if f.Consumption != nil {
		r.Consumption = *f.Consumption
	}
	if f.Cost != nil {
		r.Cost = *f.Cost
	}
	if f.Saved != nil {
		r.Saved = *f.Saved
	}
	if f.MoneySaved != nil {
		r.MoneySaved = *f.MoneySaved
	}
	return r
}

// Ptr returns a pointer to v. Handy when building RecordFields.
func Ptr[T any](v T) *T {
	return &v
}

// CloneRecords returns a copy of records that never aliases the input.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
