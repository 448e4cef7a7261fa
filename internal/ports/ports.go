// Package ports declares the interfaces between the dashboard and the
// stores and mirrors it talks to.
package ports

import (
	"context"

	"energydash/internal/core"
)

type (
	// RecordLoader reads the committed record sequence.
	RecordLoader interface {
		LoadRecords(ctx context.Context) ([]core.Record, error)
	}

	// RecordCommitter replaces the committed sequence with a new one.
	RecordCommitter interface {
		ReplaceAll(ctx context.Context, records []core.Record) error
	}

	// CommitHistory reports the most recent commit. A store that was never
	// committed to returns the zero CommitInfo.
	CommitHistory interface {
		LastCommit(ctx context.Context) (core.CommitInfo, error)
	}

	// SnapshotReader returns the last commit together with the records it
	// wrote. A store that was never committed to returns the zero CommitInfo.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.CommitInfo, []core.Record, error)
	}

	// RecordStore is everything the web layer needs from persistence.
	RecordStore interface {
		RecordLoader
		RecordCommitter
		CommitHistory
	}

	// SnapshotMirror receives a copy of every committed snapshot.
	SnapshotMirror interface {
		Name() string
		Mirror(ctx context.Context, commit core.CommitInfo, records []core.Record) error
	}
)
