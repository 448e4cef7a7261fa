package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/core"
	"energydash/internal/importer"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "energy.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRepositoryStartsEmpty(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	records, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	last, err := repo.LastCommit(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestSaveSnapshotReplacesAndKeepsOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	fixed := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	first := []core.Record{
		{ID: "z", Period: "January 2025", Consumption: 1000, Cost: 120},
		{ID: "a", Period: "February 2025", Consumption: 900, Cost: 108, SavingsPercentage: 10},
	}
	info, err := repo.SaveSnapshot(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.ID)
	assert.Equal(t, 2, info.RecordCount)

	got, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got, "sequence order is kept, not id order")

	require.NoError(t, repo.ReplaceAll(ctx, first[1:]))
	got, err = repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[1:], got)

	last, err := repo.LastCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last.ID)
	assert.Equal(t, 1, last.RecordCount)
	assert.True(t, fixed.Equal(last.CommittedAt))
}

func TestSnapshotMatchesLastCommit(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	info, records, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, info)
	assert.Empty(t, records)

	first := []core.Record{{ID: "a", Period: "January 2025", Consumption: 1000}}
	second := append(core.CloneRecords(first), core.Record{ID: "b", Period: "February 2025", Consumption: 900})
	_, err = repo.SaveSnapshot(ctx, first)
	require.NoError(t, err)
	saved, err := repo.SaveSnapshot(ctx, second)
	require.NoError(t, err)

	info, records, err = repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, info.ID)
	assert.Equal(t, info.RecordCount, len(records))
	assert.Equal(t, second, records)
}

func TestImportedNegativeCellsCommit(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	res, err := importer.ParseCSV(strings.NewReader("period,consumption,cost\nMay 2025,-50,-6\n"), time.Now())
	require.NoError(t, err)

	_, err = repo.SaveSnapshot(ctx, res.Records)
	require.NoError(t, err, "imported records must satisfy the schema checks")
}

func TestSaveSnapshotIsAtomic(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	good := []core.Record{{ID: "a", Period: "January 2025", Consumption: 1}}
	require.NoError(t, repo.ReplaceAll(ctx, good))

	// duplicate ids violate the primary key halfway through
	bad := []core.Record{
		{ID: "b", Period: "January 2025", Consumption: 1},
		{ID: "b", Period: "February 2025", Consumption: 2},
	}
	assert.Error(t, repo.ReplaceAll(ctx, bad))

	got, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, good, got)
}

func TestSeedIfEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	seed := core.SeedRecords(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	seeded, err := repo.SeedIfEmpty(ctx, seed)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedIfEmpty(ctx, seed[:1])
	require.NoError(t, err)
	assert.False(t, seeded)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.SeedMonths, n)

	last, err := repo.LastCommit(ctx)
	require.NoError(t, err)
	assert.Zero(t, last.ID, "seeding is not a commit")
}

func TestRepositoryReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceAll(context.Background(), []core.Record{{ID: "a", Period: "May 2025", Consumption: 3}}))
	require.NoError(t, repo.Close())

	again, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer again.Close()
	got, err := again.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
