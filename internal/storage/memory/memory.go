// Package memory is a process-local record store used for development and
// tests. Commits are lost on restart.
package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"energydash/internal/core"
	"energydash/internal/importer"
)

// SeedFile is the file NewFromFiles looks for inside its directory.
const SeedFile = "seed.csv"

type Store struct {
	mu      sync.Mutex
	records []core.Record
	commits []core.CommitInfo
	now     func() time.Time
}

// New returns a store holding a copy of records.
func New(records []core.Record) *Store {
	recs := core.CloneRecords(records)
	core.RecomputeSavings(recs)
	return &Store{records: recs, now: time.Now}
}

// NewFromFiles seeds the store from base/seed.csv when it exists and parses,
// and from generated demo data otherwise.
func NewFromFiles(base string, now time.Time) *Store {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if err != nil {
		return New(core.SeedRecords(now))
	}
	defer f.Close()

	res, err := importer.ParseCSV(f, now)
	if err != nil || len(res.Records) == 0 {
		slog.Warn("Ignoring unusable seed file, using generated data",
			"path", path,
			"error", err)
		return New(core.SeedRecords(now))
	}
	return New(res.Records)
}

// LoadRecords implements ports.RecordLoader.
func (s *Store) LoadRecords(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneRecords(s.records), nil
}

// ReplaceAll implements ports.RecordCommitter.
func (s *Store) ReplaceAll(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = core.CloneRecords(records)
	s.commits = append(s.commits, core.CommitInfo{
		ID:          int64(len(s.commits) + 1),
		CommittedAt: s.now().UTC(),
		RecordCount: len(records),
	})
	return nil
}

// LastCommit implements ports.CommitHistory.
func (s *Store) LastCommit(_ context.Context) (core.CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.commits) == 0 {
		return core.CommitInfo{}, nil
	}
	return s.commits[len(s.commits)-1], nil
}
