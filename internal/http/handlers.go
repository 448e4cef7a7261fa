package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"energydash/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	if last, err := s.store.LastCommit(ctx); err == nil {
		checks["last_commit"] = map[string]any{
			"id":      last.ID,
			"records": last.RecordCount,
		}
	}

	checks["sessions"] = map[string]any{
		"active": s.sessions.Len(),
		"status": "ok",
	}

	limits := s.limiter.Stats()
	checks["rate_limiter"] = map[string]any{
		"active_clients": limits.ActiveClients,
		"rejected":       limits.Rejected,
		"status":         "ok",
	}
	checks["security"] = map[string]any{
		"suspicious_requests": s.detector.GetMetrics().SuspiciousRequests,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleRoot sends the browser to the dashboard in its preferred language.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	locale := s.bundle.Match(r.Header.Get("Accept-Language"))
	http.Redirect(w, r, localeBase(locale)+"/", http.StatusFound)
}

// handleUnknown catches everything the mux has no route for. Pages under an
// unsupported locale are redirected to the default one.
func (s *Server) handleUnknown(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && localeFromPath(r.URL.Path) == "" {
		if first := firstSegment(r.URL.Path); len(first) == 2 {
			http.Redirect(w, r, localeBase(s.bundle.Fallback())+"/", http.StatusFound)
			return
		}
	}
	http.NotFound(w, r)
}

func firstSegment(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}

// render executes a template into a buffer first so that a failing
// template never leaves a half written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.requestLogger(r).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			"template", name)
		l := s.bundle.Localizer(localeFromPath(r.URL.Path))
		InternalServerError(l.T("notice.commitFailed")).Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
