package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"energydash/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent commits
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadRecords implements ports.RecordLoader.
func (r *SQLiteRepository) LoadRecords(ctx context.Context) ([]core.Record, error) {
	return loadRecords(ctx, r.db)
}

func loadRecords(ctx context.Context, q querier) ([]core.Record, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, period, consumption, cost, saved, money_saved, savings_percentage
		FROM energy_records
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.ID, &rec.Period, &rec.Consumption, &rec.Cost,
			&rec.Saved, &rec.MoneySaved, &rec.SavingsPercentage); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Snapshot implements ports.SnapshotReader. The commit and the records are
// read in one transaction, so the records are exactly those of the commit.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.CommitInfo, []core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CommitInfo{}, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	info, err := lastCommit(ctx, tx)
	if err != nil {
		return core.CommitInfo{}, nil, err
	}
	records, err := loadRecords(ctx, tx)
	if err != nil {
		return core.CommitInfo{}, nil, err
	}
	return info, records, nil
}

// ReplaceAll implements ports.RecordCommitter.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []core.Record) error {
	_, err := r.SaveSnapshot(ctx, records)
	return err
}

// SaveSnapshot replaces every stored record with records, in one
// transaction, and appends a row to the commit log.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, records []core.Record) (core.CommitInfo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM energy_records`); err != nil {
		return core.CommitInfo{}, fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO energy_records
			(id, position, period, consumption, cost, saved, money_saved, savings_percentage, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	committedAt := r.now().UTC()
	stamp := committedAt.Format(timeLayout)
	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, rec.Period, rec.Consumption, rec.Cost,
			rec.Saved, rec.MoneySaved, rec.SavingsPercentage, stamp); err != nil {
			return core.CommitInfo{}, fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO commits (committed_at, record_count) VALUES (?, ?)`,
		stamp, len(records))
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("insert commit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("commit id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.CommitInfo{}, fmt.Errorf("commit transaction: %w", err)
	}

	info := core.CommitInfo{ID: id, CommittedAt: committedAt, RecordCount: len(records)}
	slog.InfoContext(ctx, "Records committed to SQLite",
		"commit_id", info.ID,
		"record_count", info.RecordCount)
	return info, nil
}

// LastCommit implements ports.CommitHistory.
func (r *SQLiteRepository) LastCommit(ctx context.Context) (core.CommitInfo, error) {
	return lastCommit(ctx, r.db)
}

func lastCommit(ctx context.Context, q querier) (core.CommitInfo, error) {
	var (
		info  core.CommitInfo
		stamp string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, committed_at, record_count FROM commits ORDER BY id DESC LIMIT 1`).
		Scan(&info.ID, &stamp, &info.RecordCount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CommitInfo{}, nil
	}
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("query last commit: %w", err)
	}
	info.CommittedAt, err = time.Parse(timeLayout, stamp)
	if err != nil {
		return core.CommitInfo{}, fmt.Errorf("parse commit time %q: %w", stamp, err)
	}
	return info, nil
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM energy_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// SeedIfEmpty stores records when the table is empty and reports whether it
// did. Seeding does not add to the commit log.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, records []core.Record) (bool, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stamp := r.now().UTC().Format(timeLayout)
	for i, rec := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO energy_records
				(id, position, period, consumption, cost, saved, money_saved, savings_percentage, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, rec.Period, rec.Consumption, rec.Cost,
			rec.Saved, rec.MoneySaved, rec.SavingsPercentage, stamp); err != nil {
			return false, fmt.Errorf("seed record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded empty SQLite store", "record_count", len(records))
	return true, nil
}
