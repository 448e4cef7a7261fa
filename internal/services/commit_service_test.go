package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"energydash/internal/amqp"
	"energydash/internal/core"
)

type fakeRepo struct {
	records []core.Record
	saveErr error
	commits int64
	closed  bool
}

func (r *fakeRepo) LoadRecords(context.Context) ([]core.Record, error) {
	return core.CloneRecords(r.records), nil
}

func (r *fakeRepo) LastCommit(context.Context) (core.CommitInfo, error) {
	return core.CommitInfo{ID: r.commits, RecordCount: len(r.records)}, nil
}

func (r *fakeRepo) SaveSnapshot(_ context.Context, records []core.Record) (core.CommitInfo, error) {
	if r.saveErr != nil {
		return core.CommitInfo{}, r.saveErr
	}
	r.records = core.CloneRecords(records)
	r.commits++
	return core.CommitInfo{ID: r.commits, CommittedAt: time.Now(), RecordCount: len(records)}, nil
}

func (r *fakeRepo) Close() error {
	r.closed = true
	return nil
}

type fakePublisher struct {
	published []*amqp.CommitMessage
	err       error
	closeErr  error
}

func (p *fakePublisher) PublishCommit(_ context.Context, msg *amqp.CommitMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *fakePublisher) Close() error { return p.closeErr }

func TestCommitService_ReplaceAllPublishes(t *testing.T) {
	repo := &fakeRepo{}
	pub := &fakePublisher{}
	s := NewCommitService(repo, pub)

	records := []core.Record{{ID: "a", Period: "May 2025", Consumption: 1}}
	if err := s.ReplaceAll(context.Background(), records); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].CommitID != 1 || pub.published[0].RecordCount != 1 {
		t.Fatalf("unexpected published messages: %+v", pub.published)
	}
	got, _ := s.LoadRecords(context.Background())
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestCommitService_PublishFailureDoesNotFailCommit(t *testing.T) {
	repo := &fakeRepo{}
	s := NewCommitService(repo, &fakePublisher{err: errors.New("broker down")})

	if err := s.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceAll should succeed when only publishing fails: %v", err)
	}
	if repo.commits != 1 {
		t.Fatalf("expected snapshot to be saved")
	}
}

func TestCommitService_SaveFailure(t *testing.T) {
	pub := &fakePublisher{}
	s := NewCommitService(&fakeRepo{saveErr: errors.New("disk full")}, pub)

	if err := s.ReplaceAll(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.published) != 0 {
		t.Fatal("nothing should be published when saving fails")
	}
}

func TestCommitService_NilPublisher(t *testing.T) {
	s := NewCommitService(&fakeRepo{}, nil)
	if err := s.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
}

func TestCommitService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &CommitService{}
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})

	t.Run("collects errors", func(t *testing.T) {
		repo := &fakeRepo{}
		service := NewCommitService(repo, &fakePublisher{closeErr: errors.New("boom")})
		if err := service.Close(); err == nil {
			t.Fatal("expected close error")
		}
		if !repo.closed {
			t.Fatal("storage should be closed even if the publisher fails")
		}
	})
}
