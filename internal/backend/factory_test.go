package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"energydash/internal/config"
	"energydash/internal/core"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"sqlite", KindSQLite, false},
		{" Memory ", KindMemory, false},
		{"sheets", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}

	_, err := ParseKind("postgres")
	if err == nil || !strings.Contains(err.Error(), "sqlite, memory") {
		t.Errorf("error should list the supported backends, got %v", err)
	}
}

func TestSettingsFrom(t *testing.T) {
	if _, err := SettingsFrom(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := SettingsFrom(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	s, err := SettingsFrom(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "x.db",
		DataDir:      "d",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "energydash",
	})
	if err != nil {
		t.Fatalf("SettingsFrom: %v", err)
	}
	want := Settings{
		Kind:     KindSQLite,
		DBPath:   "x.db",
		Announce: Announce{URL: "amqp://localhost", Exchange: "energydash"},
		DataDir:  "d",
	}
	if s != want {
		t.Errorf("SettingsFrom() = %+v, want %+v", s, want)
	}
}

func TestOpen_SQLiteNeedsPath(t *testing.T) {
	if _, err := NewFactory(nil).Open(context.Background(), Settings{Kind: KindSQLite}); err == nil {
		t.Error("sqlite without a path should be rejected")
	}
}

func TestOpen_Memory(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.Open(context.Background(), Settings{Kind: KindMemory, DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer res.Close()

	records, err := res.Store.LoadRecords(context.Background())
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != core.SeedMonths {
		t.Errorf("expected %d seeded records, got %d", core.SeedMonths, len(records))
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if res.Persistent {
		t.Error("memory backend reported as persistent")
	}
}

func TestOpen_SQLiteSeedsAndCommits(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)
	cfg := Settings{Kind: KindSQLite, DBPath: filepath.Join(t.TempDir(), "energy.db")}

	res, err := f.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer res.Close()

	records, err := res.Store.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != core.SeedMonths {
		t.Fatalf("expected %d seeded records, got %d", core.SeedMonths, len(records))
	}

	last, err := res.Store.LastCommit(ctx)
	if err != nil {
		t.Fatalf("LastCommit: %v", err)
	}
	if last.ID != 0 {
		t.Errorf("seeding must not be logged as a commit, got %+v", last)
	}

	if err := res.Store.ReplaceAll(ctx, records[:3]); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	last, _ = res.Store.LastCommit(ctx)
	if last.ID != 1 || last.RecordCount != 3 {
		t.Errorf("unexpected last commit: %+v", last)
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	f := NewFactory(nil)
	if _, err := f.Open(context.Background(), Settings{Kind: "nope"}); err == nil {
		t.Error("expected error for invalid backend type")
	}
}
