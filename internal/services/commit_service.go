package services

import (
	"context"
	"fmt"
	"log/slog"

	"energydash/internal/amqp"
	"energydash/internal/core"
	"energydash/internal/log"
	"energydash/internal/ports"
)

// SnapshotRepository is the persistence side of a CommitService.
type SnapshotRepository interface {
	ports.RecordLoader
	ports.CommitHistory
	SaveSnapshot(ctx context.Context, records []core.Record) (core.CommitInfo, error)
	Close() error
}

// CommitPublisher announces commits to the mirror worker.
type CommitPublisher interface {
	PublishCommit(ctx context.Context, msg *amqp.CommitMessage) error
	Close() error
}

// CommitService orchestrates commits across SQLite and AMQP
type CommitService struct {
	storage   SnapshotRepository
	publisher CommitPublisher
}

var _ ports.RecordStore = (*CommitService)(nil)

// NewCommitService creates a CommitService. publisher may be nil.
func NewCommitService(storage SnapshotRepository, publisher CommitPublisher) *CommitService {
	return &CommitService{
		storage:   storage,
		publisher: publisher,
	}
}

// LoadRecords implements ports.RecordLoader.
func (s *CommitService) LoadRecords(ctx context.Context) ([]core.Record, error) {
	return s.storage.LoadRecords(ctx)
}

// LastCommit implements ports.CommitHistory.
func (s *CommitService) LastCommit(ctx context.Context) (core.CommitInfo, error) {
	return s.storage.LastCommit(ctx)
}

// ReplaceAll saves the snapshot locally and then announces it. A failed
// announcement is logged; the commit itself has already succeeded.
func (s *CommitService) ReplaceAll(ctx context.Context, records []core.Record) error {
	info, err := s.storage.SaveSnapshot(ctx, records)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if err := s.publishCommit(ctx, info); err != nil {
		slog.ErrorContext(ctx, "Failed to publish commit message",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldCommitID, info.ID,
			log.FieldError, err)
	}
	return nil
}

func (s *CommitService) publishCommit(ctx context.Context, info core.CommitInfo) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping commit message")
		return nil
	}
	return s.publisher.PublishCommit(ctx, amqp.NewCommitMessage(info))
}

// Close closes both storage and AMQP connections
func (s *CommitService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close commit service: %v", errs)
	}

	return nil
}
