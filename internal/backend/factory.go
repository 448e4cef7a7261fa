package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"energydash/internal/amqp"
	"energydash/internal/core"
	"energydash/internal/services"
	"energydash/internal/storage"
	"energydash/internal/storage/memory"
)

// Factory opens backends. Fresh stores are seeded relative to its clock.
type Factory struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger, now: time.Now}
}

// Open validates s and opens the backend it names.
func (f *Factory) Open(ctx context.Context, s Settings) (*Backend, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Kind == KindSQLite {
		return f.openSQLite(ctx, s)
	}
	return f.openMemory(s), nil
}

func (f *Factory) openSQLite(ctx context.Context, s Settings) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	seeded, err := repo.SeedIfEmpty(ctx, core.SeedRecords(f.now()))
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed sqlite store: %w", err)
	}
	if seeded {
		f.logger.Info("Seeded empty database", "months", core.SeedMonths)
	}

	var publisher services.CommitPublisher
	if s.Announce.URL != "" {
		client, err := amqp.NewClient(s.Announce.URL, s.Announce.Exchange, s.Announce.Queue)
		if err != nil {
			f.logger.Warn("Commit announcements disabled", "error", err)
		} else {
			publisher = client
		}
	}

	commits := services.NewCommitService(repo, publisher)
	f.logger.Info("Opened sqlite backend",
		"db_path", s.DBPath,
		"announce", publisher != nil)

	return &Backend{
		Store:      commits,
		Persistent: true,
		ping:       repo.Ping,
		close:      commits.Close,
	}, nil
}

func (f *Factory) openMemory(s Settings) *Backend {
	dir := s.DataDir
	if dir == "" {
		dir = "data"
	}
	f.logger.Info("Opened memory backend", "data_directory", dir)
	return &Backend{Store: memory.NewFromFiles(dir, f.now())}
}
