package http

import (
	"net/http"
	"strconv"
	"strings"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isHTMX reports whether r was issued by htmx rather than a plain form post.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// localeBase is the URL prefix of a locale, e.g. "/pl".
func localeBase(locale string) string {
	return "/" + locale
}

// inputValue renders a number for an <input> without exponent or grouping.
func inputValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalInput(v *float64) string {
	if v == nil {
		return ""
	}
	return inputValue(*v)
}
