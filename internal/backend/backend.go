// Package backend opens the record store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"energydash/internal/config"
	"energydash/internal/ports"
)

// Kind names a record store implementation.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Kinds lists every supported backend, preferred first.
var Kinds = []Kind{KindSQLite, KindMemory}

func (k Kind) String() string { return string(k) }

// ParseKind maps a DATA_BACKEND value to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Kinds, k) {
		return k, nil
	}
	names := make([]string, len(Kinds))
	for i, kind := range Kinds {
		names[i] = kind.String()
	}
	return "", fmt.Errorf("unknown data backend %q: want one of %s", s, strings.Join(names, ", "))
}

// Announce configures where commit announcements are published. An empty
// URL disables them.
type Announce struct {
	URL      string
	Exchange string
	Queue    string
}

// Settings selects and configures a backend.
type Settings struct {
	Kind Kind

	// DBPath is the SQLite file, required for KindSQLite.
	DBPath   string
	Announce Announce

	// DataDir holds the JSON fixtures read by KindMemory.
	DataDir string
}

// SettingsFrom derives backend settings from the application config.
func SettingsFrom(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		return Settings{}, fmt.Errorf("app config is nil")
	}
	kind, err := ParseKind(cfg.DataBackend)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Kind:   kind,
		DBPath: cfg.SQLiteDBPath,
		Announce: Announce{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
		},
		DataDir: cfg.DataDir,
	}, nil
}

func (s Settings) validate() error {
	switch s.Kind {
	case KindSQLite:
		if s.DBPath == "" {
			return fmt.Errorf("sqlite backend needs SQLITE_DB_PATH")
		}
	case KindMemory:
	default:
		return fmt.Errorf("unknown data backend %q", s.Kind)
	}
	return nil
}

// Backend is an opened record store.
type Backend struct {
	Store ports.RecordStore
	// Persistent is false when committed records are lost on exit.
	Persistent bool

	ping  func(context.Context) error
	close func() error
}

// Ping reports whether the store can serve requests.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the store and any announcement connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
