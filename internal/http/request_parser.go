package http

// Record and filter forms arrive either form-encoded (htmx) or as JSON.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"energydash/internal/core"
)

// Filter form keys.
const (
	keyMinConsumption = "minConsumption"
	keyMaxConsumption = "maxConsumption"
	keyMinCost        = "minCost"
	keyMaxCost        = "maxCost"
)

// maxFormBytes caps record and filter bodies. Imports have their own limit.
const maxFormBytes = 64 << 10

// ErrBodyTooLarge is returned by Parse when a body exceeds maxFormBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// valueSource is anything that can answer form lookups.
type valueSource interface {
	Get(key string) string
	Has(key string) bool
}

// formValues adapts url.Values, e.g. a query string, to valueSource.
type formValues url.Values

func (v formValues) Get(key string) string {
	return strings.TrimSpace(sanitizeInput(url.Values(v).Get(key)))
}

func (v formValues) Has(key string) bool {
	return url.Values(v).Has(key)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	if p.err == nil && len(p.body) > maxFormBytes {
		p.body, p.err = nil, ErrBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Has reports whether key was submitted at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseRecordFields reads the editable record fields. Keys that were not
// submitted stay nil; an empty number counts as not submitted. A submitted
// period is kept even when empty so that validation can reject it.
func ParseRecordFields(src valueSource) (core.RecordFields, error) {
	var fields core.RecordFields
	if src.Has(core.FieldPeriod) {
		fields.Period = core.Ptr(src.Get(core.FieldPeriod))
	}

	numbers := []struct {
		key string
		dst **float64
	}{
		{core.FieldConsumption, &fields.Consumption},
		{core.FieldCost, &fields.Cost},
		{core.FieldSaved, &fields.Saved},
		{core.FieldMoneySaved, &fields.MoneySaved},
	}
	for _, n := range numbers {
		v, err := parseOptionalMeasure(src, n.key)
		if err != nil {
			return core.RecordFields{}, err
		}
		*n.dst = v
	}
	return fields, nil
}

// ParseFilter reads the filter bounds. Empty bounds are unset.
func ParseFilter(src valueSource) (core.Filter, error) {
	var f core.Filter
	bounds := []struct {
		key string
		dst **float64
	}{
		{keyMinConsumption, &f.MinConsumption},
		{keyMaxConsumption, &f.MaxConsumption},
		{keyMinCost, &f.MinCost},
		{keyMaxCost, &f.MaxCost},
	}
	for _, b := range bounds {
		v, err := parseOptionalMeasure(src, b.key)
		if err != nil {
			return core.Filter{}, err
		}
		*b.dst = v
	}
	return f, nil
}

func parseOptionalMeasure(src valueSource, key string) (*float64, error) {
	if !src.Has(key) {
		return nil, nil
	}
	raw := src.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := core.ParseMeasure(raw)
	if err != nil {
		return nil, core.NewValidationError(key, raw, "must be a non-negative number")
	}
	return &v, nil
}
