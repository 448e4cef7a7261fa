// Package http serves the localized energy dashboard: full pages, htmx
// partials and the form posts that edit a session's working set.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energydash/internal/cache"
	"energydash/internal/i18n"
	"energydash/internal/log"
	"energydash/internal/middleware/ratelimit"
	"energydash/internal/middleware/security"
	"energydash/internal/middleware/trace"
	"energydash/internal/ports"
	"energydash/internal/session"
	appweb "energydash/web"
)

// SessionCookie names the cookie that carries the session id.
const SessionCookie = "energydash_session"

// Options tunes the server. Zero values fall back to the defaults below.
type Options struct {
	SessionTTL         time.Duration
	MaxSessions        int
	MaxUploadBytes     int64
	RateLimitPerMinute int
	SecureCookies      bool
	CleanupInterval    time.Duration
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed, on top
	// of loopback and private networks.
	TrustedProxies []string
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = 2 * time.Hour
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = 1000
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 5 << 20
	}
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 5 * time.Minute
	}
	return o
}

// Deps are the collaborators of the server. Store is required.
type Deps struct {
	Store  ports.RecordStore
	Ping   func(ctx context.Context) error
	Bundle *i18n.Bundle
	Logger *log.Logger
}

// Server serves the dashboard, its HTMX partials and the JSON API.
type Server struct {
	http.Server
	templates *template.Template
	store     ports.RecordStore
	ping      func(ctx context.Context) error
	sessions  *session.Store
	bundle    *i18n.Bundle
	logger    *log.Logger
	events    *log.StructuredLogger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	sweeper  *cache.Sweeper

	opts    Options
	started time.Time
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("http: record store is required")
	}
	opts = opts.withDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	bundle := deps.Bundle
	if bundle == nil {
		var err error
		if bundle, err = i18n.Load(i18n.DefaultLocale); err != nil {
			return nil, fmt.Errorf("load message catalogs: %w", err)
		}
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		store:     deps.Store,
		ping:      deps.Ping,
		sessions:  session.NewStore(deps.Store, opts.MaxSessions, opts.SessionTTL),
		bundle:    bundle,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		detector:  security.NewDetector(),
		sweeper:   cache.NewSweeper(logger.Logger),
		opts:      opts,
		started:   time.Now(),
		now:       time.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		CleanupInterval:   ratelimit.DefaultConfig().CleanupInterval,
	})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	s.sweeper.Register(s.sessions)
	s.sweeper.Start(opts.CleanupInterval)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	policy := security.NewPolicy(security.DefaultPolicyConfig())
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingRequest, s.handleRateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = policy.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.CacheStatic(time.Hour)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/records", s.handleAPIRecords)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("/", s.handleUnknown)

	s.localized(mux, "GET /{locale}/{$}", s.handleDashboard)
	s.localized(mux, "GET /{locale}/ui/records", s.handleRecordsPartial)
	s.localized(mux, "GET /{locale}/ui/summary", s.handleSummaryPartial)
	s.localized(mux, "GET /{locale}/ui/status", s.handleStatusPartial)
	s.localized(mux, "GET /{locale}/ui/records/{id}", s.handleRowPartial)
	s.localized(mux, "GET /{locale}/ui/records/{id}/edit", s.handleRowEditPartial)

	s.localized(mux, "POST /{locale}/records", s.handleAddRecord)
	s.localized(mux, "POST /{locale}/records/{id}", s.handleUpdateRecord)
	s.localized(mux, "DELETE /{locale}/records/{id}", s.handleDeleteRecord)
	s.localized(mux, "POST /{locale}/records/{id}/delete", s.handleDeleteRecord)
	s.localized(mux, "POST /{locale}/records/{id}/revert", s.handleRevertRecord)
	s.localized(mux, "POST /{locale}/commit", s.handleCommit)
	s.localized(mux, "POST /{locale}/discard", s.handleDiscard)
	s.localized(mux, "POST /{locale}/filter", s.handleFilter)
	s.localized(mux, "POST /{locale}/sort", s.handleSort)
	s.localized(mux, "POST /{locale}/import", s.handleImport)
	s.localized(mux, "GET /{locale}/export/{format}", s.handleExport)
	return nil
}

// localized registers pattern once per supported locale. Spelling the
// locale out keeps the routes from overlapping /static/ and friends.
func (s *Server) localized(mux *http.ServeMux, pattern string, h pageHandler) {
	method, path, _ := strings.Cut(pattern, " ")
	for _, locale := range i18n.Locales {
		mux.Handle(method+" "+strings.Replace(path, "{locale}", locale, 1), s.withSession(locale, h))
	}
}

// handleRateLimited answers requests rejected by the limiter.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	l := s.bundle.Localizer(localeFromPath(r.URL.Path))
	s.requestLogger(r).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError(l.T("notice.rateLimited")).Write(w)
}

// requestLogger returns the logger the tracer attached to r.
func (s *Server) requestLogger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context(), s.logger)
}

// Sessions exposes the session store, mainly for tests and readiness.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Shutdown stops background cleanup and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.sweeper.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// localeFromPath returns the locale prefix of path, or "" if there is none.
func localeFromPath(path string) string {
	if first := firstSegment(path); i18n.IsSupported(first) {
		return first
	}
	return ""
}
