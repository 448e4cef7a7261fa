package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTMXOrigin is where the dashboard loads htmx from.
const HTMXOrigin = "https://unpkg.com"

// Policy is the set of response headers sent with every page. Build one
// with NewPolicy.
type Policy struct {
	headers [][2]string
	hsts    string
}

// PolicyConfig holds the tunable parts of a Policy.
type PolicyConfig struct {
	// ScriptOrigins are allowed next to 'self' in script-src.
	ScriptOrigins []string
	// HSTSMaxAge is sent on TLS requests only. Zero disables HSTS.
	HSTSMaxAge time.Duration
}

// DefaultPolicyConfig allows htmx from its CDN and pins HTTPS for a year.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		ScriptOrigins: []string{HTMXOrigin},
		HSTSMaxAge:    365 * 24 * time.Hour,
	}
}

// NewPolicy renders cfg into header values once.
func NewPolicy(cfg PolicyConfig) *Policy {
	scripts := append([]string{"'self'"}, cfg.ScriptOrigins...)
	csp := strings.Join([]string{
		"default-src 'self'",
		"script-src " + strings.Join(scripts, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")

	p := &Policy{headers: [][2]string{
		{"Content-Security-Policy", csp},
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
	}}
	if cfg.HSTSMaxAge > 0 {
		p.hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int(cfg.HSTSMaxAge.Seconds()))
	}
	return p
}

// Middleware sets the policy headers before calling next.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range p.headers {
			h.Set(kv[0], kv[1])
		}
		if r.TLS != nil && p.hsts != "" {
			h.Set("Strict-Transport-Security", p.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// CacheStatic marks responses as publicly cacheable for maxAge.
func CacheStatic(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
