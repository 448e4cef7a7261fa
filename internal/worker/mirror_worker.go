package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"energydash/internal/amqp"
	"energydash/internal/core"
	"energydash/internal/log"
	"energydash/internal/metrics"
	"energydash/internal/ports"
)

// SnapshotSource is the committed store the worker reads from. LastCommit
// is the cheap staleness check; Snapshot is what gets mirrored.
type SnapshotSource interface {
	ports.SnapshotReader
	ports.CommitHistory
}

// MirrorWorker copies committed snapshots from SQLite to every configured
// mirror (MQTT, Google Sheets).
type MirrorWorker struct {
	source  SnapshotSource
	mirrors []ports.SnapshotMirror

	mu           sync.Mutex
	lastMirrored int64
}

func NewMirrorWorker(source SnapshotSource, mirrors ...ports.SnapshotMirror) *MirrorWorker {
	return &MirrorWorker{
		source:  source,
		mirrors: mirrors,
	}
}

// LastMirrored returns the id of the newest commit every mirror accepted.
func (w *MirrorWorker) LastMirrored() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastMirrored
}

// HandleCommitMessage processes a single records.committed message from AMQP.
// Messages for commits already mirrored are acknowledged without work.
func (w *MirrorWorker) HandleCommitMessage(ctx context.Context, msg *amqp.CommitMessage) error {
	slog.InfoContext(ctx, "Processing commit message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldCommitID, msg.CommitID,
		log.FieldRecordCount, msg.RecordCount)

	if msg.CommitID <= w.LastMirrored() {
		slog.DebugContext(ctx, "Commit already mirrored, skipping", log.FieldCommitID, msg.CommitID)
		return nil
	}

	if err := w.MirrorLatest(ctx); err != nil {
		return fmt.Errorf("mirror commit %d: %w", msg.CommitID, err)
	}
	return nil
}

// MirrorLatest loads the newest committed snapshot and hands it to every
// mirror concurrently. The snapshot is only marked mirrored when all
// mirrors succeed, so the next resync retries a partial failure.
func (w *MirrorWorker) MirrorLatest(ctx context.Context) error {
	info, records, err := w.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if info.ID == 0 {
		slog.DebugContext(ctx, "No commits yet, nothing to mirror")
		return nil
	}

	if err := w.fanOut(ctx, info, records); err != nil {
		return err
	}

	w.mu.Lock()
	if info.ID > w.lastMirrored {
		w.lastMirrored = info.ID
	}
	w.mu.Unlock()
	metrics.LastMirroredCommit.Set(float64(info.ID))

	slog.InfoContext(ctx, "Mirrored commit",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpMirror,
		log.FieldCommitID, info.ID,
		log.FieldRecordCount, len(records),
		"mirrors", len(w.mirrors))
	return nil
}

func (w *MirrorWorker) fanOut(ctx context.Context, info core.CommitInfo, records []core.Record) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range w.mirrors {
		g.Go(func() error {
			err := m.Mirror(gctx, info, core.CloneRecords(records))
			metrics.MirrorRuns.WithLabelValues(m.Name(), metrics.StatusOf(err)).Inc()
			if err != nil {
				slog.ErrorContext(gctx, "Mirror failed",
					log.FieldComponent, log.ComponentWorker,
					log.FieldOperation, log.OpMirror,
					log.FieldMirror, m.Name(),
					log.FieldCommitID, info.ID,
					log.FieldError, err)
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ResyncIfStale mirrors the latest commit when it is newer than the last
// one mirrored. It covers commits whose message was lost while the broker
// or the worker was down.
func (w *MirrorWorker) ResyncIfStale(ctx context.Context) error {
	info, err := w.source.LastCommit(ctx)
	if err != nil {
		return fmt.Errorf("read last commit: %w", err)
	}
	if info.ID <= w.LastMirrored() {
		return nil
	}

	slog.InfoContext(ctx, "Mirrors are behind, resyncing",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpSync,
		log.FieldCommitID, info.ID,
		"last_mirrored", w.LastMirrored())
	return w.MirrorLatest(ctx)
}
