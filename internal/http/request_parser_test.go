package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"energydash/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "period": "Jan 2024", "consumption": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if c := parser.Get("consumption"); c != "42.5" {
		t.Errorf("Get('consumption') = %q, want '42.5'", c)
	}
	if !parser.Has("period") || parser.Has("cost") {
		t.Error("Has() does not reflect submitted keys")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&period=Feb+2024&cost="
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}
	if p := parser.Get("period"); p != "Feb 2024" {
		t.Errorf("Get('period') = %q, want 'Feb 2024'", p)
	}
	if !parser.Has("cost") {
		t.Error("empty cost should still count as submitted")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "period=" + strings.Repeat("x", maxFormBytes)
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Parse() error = %v, want ErrBodyTooLarge", err)
	}
	if parser.Has("period") {
		t.Error("an oversized body must not be parsed")
	}

	exact := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body[:maxFormBytes]))
	if err := NewRequestBodyParser(exact).Parse(); err != nil {
		t.Errorf("Parse() at the limit error = %v", err)
	}
}

func TestRequestBodyParser_StripsControlCharacters(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("period=Jan%002024"))
	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := parser.Get("period"); got != "Jan2024" {
		t.Errorf("Get('period') = %q, want %q", got, "Jan2024")
	}
}

func TestParseRecordFields(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		wantErr   bool
		check     func(t *testing.T, f core.RecordFields)
		wantField string
	}{
		{
			name:   "all fields with comma decimals",
			values: url.Values{"period": {"Mar 2024"}, "consumption": {"950,5"}, "cost": {"142.58"}, "saved": {"49.5"}, "moneySaved": {"7,43"}},
			check: func(t *testing.T, f core.RecordFields) {
				if f.Period == nil || *f.Period != "Mar 2024" {
					t.Errorf("Period = %v", f.Period)
				}
				if f.Consumption == nil || *f.Consumption != 950.5 {
					t.Errorf("Consumption = %v", f.Consumption)
				}
				if f.MoneySaved == nil || *f.MoneySaved != 7.43 {
					t.Errorf("MoneySaved = %v", f.MoneySaved)
				}
			},
		},
		{
			name:   "missing and empty numbers stay unset",
			values: url.Values{"cost": {""}},
			check: func(t *testing.T, f core.RecordFields) {
				if !f.Empty() {
					t.Errorf("fields = %+v, want empty", f)
				}
			},
		},
		{
			name:   "submitted empty period is kept",
			values: url.Values{"period": {"  "}},
			check: func(t *testing.T, f core.RecordFields) {
				if f.Period == nil || *f.Period != "" {
					t.Errorf("Period = %v, want empty string", f.Period)
				}
			},
		},
		{
			name:      "negative number",
			values:    url.Values{"consumption": {"-3"}},
			wantErr:   true,
			wantField: core.FieldConsumption,
		},
		{
			name:      "garbage number",
			values:    url.Values{"cost": {"abc"}},
			wantErr:   true,
			wantField: core.FieldCost,
		},
		{
			name:      "number too large for float64",
			values:    url.Values{"period": {"May 2025"}, "consumption": {"1e400"}},
			wantErr:   true,
			wantField: core.FieldConsumption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseRecordFields(formValues(tt.values))
			if tt.wantErr {
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				if verr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecordFields() error = %v", err)
			}
			tt.check(t, fields)
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(formValues(url.Values{
		"minConsumption": {"100"},
		"maxConsumption": {""},
		"maxCost":        {"250,75"},
	}))
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}
	if f.MinConsumption == nil || *f.MinConsumption != 100 {
		t.Errorf("MinConsumption = %v", f.MinConsumption)
	}
	if f.MaxConsumption != nil || f.MinCost != nil {
		t.Errorf("unset bounds should be nil: %+v", f)
	}
	if f.MaxCost == nil || *f.MaxCost != 250.75 {
		t.Errorf("MaxCost = %v", f.MaxCost)
	}

	if _, err := ParseFilter(formValues(url.Values{"minCost": {"x"}})); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
