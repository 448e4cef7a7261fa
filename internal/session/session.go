// Package session keeps one working set per browser session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"energydash/internal/cache"
	"energydash/internal/core"
	"energydash/internal/log"
	"energydash/internal/metrics"
	"energydash/internal/ports"
	"energydash/internal/workset"
)

// Session is the per-browser state. Callers hold the lock while they use
// the reconciler or the view settings.
type Session struct {
	ID string

	mu         sync.Mutex
	Locale     string
	Filter     core.Filter
	Sort       core.SortSpec
	Reconciler *workset.Reconciler
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Rebase discards every pending edit and reloads the baseline from the store.
func (s *Session) Rebase(ctx context.Context, loader ports.RecordLoader) error {
	records, err := loader.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	s.Reconciler.Reset(records)
	return nil
}

// Store holds live sessions in an LRU with an idle TTL.
type Store struct {
	loader   ports.RecordLoader
	sessions *cache.LRUCache[*Session]
	newID    func() string
}

// NewStore creates a session store seeded from loader.
func NewStore(loader ports.RecordLoader, maxSessions int, ttl time.Duration, opts ...cache.Option[*Session]) *Store {
	opts = append(opts, cache.WithEvictCallback(func(id string, _ *Session) {
		metrics.ActiveSessions.Dec()
		slog.Debug("Session evicted", log.FieldComponent, log.ComponentSession, log.FieldSessionID, id)
	}))
	return &Store{
		loader:   loader,
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl, opts...),
		newID:    uuid.NewString,
	}
}

// Get returns a live session.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.sessions.Get(id)
}

// Create starts a session whose baseline is the store's current records.
func (s *Store) Create(ctx context.Context, locale string) (*Session, error) {
	records, err := s.loader.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	sess := &Session{
		ID:         s.newID(),
		Locale:     locale,
		Reconciler: workset.New(records),
	}
	s.sessions.Set(sess.ID, sess)
	metrics.ActiveSessions.Inc()

	slog.DebugContext(ctx, "Session created",
		log.FieldComponent, log.ComponentSession,
		log.FieldSessionID, sess.ID,
		log.FieldLocale, locale,
		log.FieldRecordCount, len(records))
	return sess, nil
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown or expired. The bool reports whether a session was created.
func (s *Store) GetOrCreate(ctx context.Context, id, locale string) (*Session, bool, error) {
	if sess, ok := s.Get(id); ok {
		return sess, false, nil
	}
	sess, err := s.Create(ctx, locale)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	if _, ok := s.sessions.Get(id); ok {
		s.sessions.Delete(id)
		metrics.ActiveSessions.Dec()
	}
}

// Len returns the number of sessions held, expired ones included until
// the next cleanup.
func (s *Store) Len() int {
	return s.sessions.Size()
}

// CleanExpired implements cache.Cleaner.
func (s *Store) CleanExpired() int {
	n := s.sessions.CleanExpired()
	s.refreshPendingGauge()
	return n
}

// PendingTotal sums pending edits across live sessions.
func (s *Store) PendingTotal() int {
	total := 0
	s.sessions.Range(func(_ string, sess *Session) {
		sess.Lock()
		total += sess.Reconciler.PendingCount()
		sess.Unlock()
	})
	return total
}

func (s *Store) refreshPendingGauge() {
	metrics.PendingEdits.Set(float64(s.PendingTotal()))
}
