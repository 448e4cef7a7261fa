// Package workset holds the editable copy of the record sequence a user is
// working on, and tracks how it differs from the last committed state.
//
// A Reconciler is owned by a single caller and is not safe for concurrent
// use; the web layer serializes access per session.
package workset

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"energydash/internal/core"
)

// ChangeKind classifies a pending edit.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// Change is the pending state of one record id. For deletions Record holds
// the baseline version that would be lost.
type Change struct {
	Kind   ChangeKind
	Record core.Record
}

// Sink receives the full working set on commit.
type Sink interface {
	ReplaceAll(ctx context.Context, records []core.Record) error
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithIDGenerator replaces the generator used for new record ids.
func WithIDGenerator(gen func() string) Option {
	return func(r *Reconciler) {
		r.newID = gen
	}
}

// Reconciler owns baseline, working set and pending edits.
//
// Invariants kept after every operation:
//   - working ids are unique;
//   - every working record that is not in pending equals its baseline
//     version in every mutable field;
//   - savings percentages in working follow sequence order.
type Reconciler struct {
	baseline []core.Record
	working  []core.Record
	pending  map[string]Change
	newID    func() string
}

// New creates a Reconciler whose baseline is a copy of baseline.
func New(baseline []core.Record, opts ...Option) *Reconciler {
	r := &Reconciler{
		newID: func() string { return "energy-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset(baseline)
	return r
}

// Reset installs newBaseline as both baseline and working set and clears
// every pending edit.
func (r *Reconciler) Reset(newBaseline []core.Record) {
	r.baseline = core.CloneRecords(newBaseline)
	core.RecomputeSavings(r.baseline)
	r.working = core.CloneRecords(r.baseline)
	r.pending = make(map[string]Change)
}

// Update applies fields to the working record with the given id.
func (r *Reconciler) Update(id string, fields core.RecordFields) (core.Record, error) {
	idx := r.indexOf(id)
	if idx < 0 {
		return core.Record{}, core.NewNotFoundError("record", id)
	}
	if err := fields.Validate(); err != nil {
		return core.Record{}, err
	}

	r.working[idx] = fields.Apply(r.working[idx])
	core.RecomputeSavings(r.working)

	kind := ChangeModified
	if prev, ok := r.pending[id]; ok && prev.Kind == ChangeAdded {
		kind = ChangeAdded
	}
	r.pending[id] = Change{Kind: kind, Record: r.working[idx]}
	r.refreshPending()
	return r.working[idx], nil
}

// Add appends a new record built from fields.
func (r *Reconciler) Add(fields core.RecordFields) (core.Record, error) {
	if err := fields.ValidateNew(); err != nil {
		return core.Record{}, err
	}
	rec := fields.Apply(core.Record{ID: r.uniqueID("")})
	r.working = append(r.working, rec)
	core.RecomputeSavings(r.working)

	rec = r.working[len(r.working)-1]
	r.pending[rec.ID] = Change{Kind: ChangeAdded, Record: rec}
	r.refreshPending()
	return rec, nil
}

// Remove deletes the working record with the given id. Removing a record
// that only exists as a pending addition leaves no trace.
func (r *Reconciler) Remove(id string) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return core.NewNotFoundError("record", id)
	}
	r.working = slices.Delete(r.working, idx, idx+1)
	core.RecomputeSavings(r.working)

	if base, ok := r.baselineRecord(id); ok {
		r.pending[id] = Change{Kind: ChangeDeleted, Record: base}
	} else {
		delete(r.pending, id)
	}
	r.refreshPending()
	return nil
}

// Revert undoes the pending edit for id.
//
// A modified baseline record gets its baseline version back, a pending
// deletion is reinserted at its baseline position and a pending addition is
// removed.
func (r *Reconciler) Revert(id string) error {
	change, isPending := r.pending[id]
	idx := r.indexOf(id)
	base, inBaseline := r.baselineRecord(id)

	switch {
	case isPending && change.Kind == ChangeAdded:
		return r.Remove(id)
	case isPending && change.Kind == ChangeDeleted:
		r.working = slices.Insert(r.working, r.insertPosition(id), base)
	case idx >= 0 && inBaseline:
		r.working[idx] = base
	default:
		return core.NewNotFoundError("record", id)
	}

	delete(r.pending, id)
	core.RecomputeSavings(r.working)
	r.refreshPending()
	return nil
}

// Import appends candidate records as pending additions and returns how many
// were appended. Ids that are empty or already taken are replaced.
func (r *Reconciler) Import(records []core.Record) int {
	for _, rec := range records {
		rec.ID = r.uniqueID(rec.ID)
		r.working = append(r.working, rec)
		r.pending[rec.ID] = Change{Kind: ChangeAdded}
	}
	core.RecomputeSavings(r.working)
	r.refreshPending()
	return len(records)
}

// Commit hands the working set to sink. On success the working set becomes
// the new baseline and the number of committed pending edits is returned.
// On failure nothing changes.
func (r *Reconciler) Commit(ctx context.Context, sink Sink) (int, error) {
	snapshot := core.CloneRecords(r.working)
	if err := sink.ReplaceAll(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("commit working set: %w", err)
	}
	n := len(r.pending)
	r.Reset(snapshot)
	return n, nil
}

// DiscardAll drops every pending edit.
func (r *Reconciler) DiscardAll() {
	r.Reset(r.baseline)
}

// Working returns a copy of the working set in sequence order.
func (r *Reconciler) Working() []core.Record {
	return core.CloneRecords(r.working)
}

// Baseline returns a copy of the last committed sequence.
func (r *Reconciler) Baseline() []core.Record {
	return core.CloneRecords(r.baseline)
}

// Filtered returns the working records matching f, in sequence order.
func (r *Reconciler) Filtered(f core.Filter) []core.Record {
	return f.Apply(r.working)
}

// Get returns the working record with the given id.
func (r *Reconciler) Get(id string) (core.Record, bool) {
	idx := r.indexOf(id)
	if idx < 0 {
		return core.Record{}, false
	}
	return r.working[idx], true
}

// Pending returns a copy of the pending edits keyed by record id.
func (r *Reconciler) Pending() map[string]Change {
	return maps.Clone(r.pending)
}

// PendingCount returns the number of pending edits.
func (r *Reconciler) PendingCount() int {
	return len(r.pending)
}

// IsPending reports whether id has a pending edit.
func (r *Reconciler) IsPending(id string) bool {
	_, ok := r.pending[id]
	return ok
}

// HasChanges reports whether anything would be committed.
func (r *Reconciler) HasChanges() bool {
	return len(r.pending) > 0
}

func (r *Reconciler) indexOf(id string) int {
	return slices.IndexFunc(r.working, func(rec core.Record) bool { return rec.ID == id })
}

func (r *Reconciler) baselineIndex(id string) int {
	return slices.IndexFunc(r.baseline, func(rec core.Record) bool { return rec.ID == id })
}

func (r *Reconciler) baselineRecord(id string) (core.Record, bool) {
	idx := r.baselineIndex(id)
	if idx < 0 {
		return core.Record{}, false
	}
	return r.baseline[idx], true
}

// insertPosition finds where a deleted baseline record goes back: before the
// first working record that comes after it in the baseline. Records that are
// not in the baseline sit at the tail.
func (r *Reconciler) insertPosition(id string) int {
	target := r.baselineIndex(id)
	for i, rec := range r.working {
		bi := r.baselineIndex(rec.ID)
		if bi < 0 || bi > target {
			return i
		}
	}
	return len(r.working)
}

// refreshPending keeps the stored copy of non-deleted pending records in sync
// with the working set after savings were recomputed.
func (r *Reconciler) refreshPending() {
	for i, rec := range r.working {
		if c, ok := r.pending[rec.ID]; ok && c.Kind != ChangeDeleted {
			c.Record = r.working[i]
			r.pending[rec.ID] = c
		}
	}
}

func (r *Reconciler) uniqueID(candidate string) string {
	id := candidate
	for id == "" || r.indexOf(id) >= 0 || r.isDeletedPending(id) {
		id = r.newID()
	}
	return id
}

func (r *Reconciler) isDeletedPending(id string) bool {
	c, ok := r.pending[id]
	return ok && c.Kind == ChangeDeleted
}
