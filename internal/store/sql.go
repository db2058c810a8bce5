package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
)

const schema = `CREATE TABLE IF NOT EXISTS display_settings (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps settings documents in a key/value table. It works with
// sqlite and postgres.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQL connects to dsn with driver and creates the table if needed.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer keeps sqlite free of "database is locked" errors.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}
	log.Info().Str("driver", driver).Msg("store: connected")
	return s, nil
}

// NewSQLStore wraps an open connection. The table must already exist.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) load(ctx context.Context, key string, v any) error {
	var payload string
	q := s.db.Rebind(`SELECT payload FROM display_settings WHERE name = ?`)
	err := s.db.GetContext(ctx, &payload, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s settings: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decoding %s settings: %w", key, err)
	}
	return nil
}

func (s *SQLStore) save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s settings: %w", key, err)
	}
	q := s.db.Rebind(`INSERT INTO display_settings (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("saving %s settings: %w", key, err)
	}
	return nil
}

func (s *SQLStore) LoadAdzanSettings(ctx context.Context) (adzan.Settings, error) {
	var v adzan.Settings
	err := s.load(ctx, keyAdzan, &v)
	return v, err
}

func (s *SQLStore) SaveAdzanSettings(ctx context.Context, v adzan.Settings) error {
	return s.save(ctx, keyAdzan, v)
}

func (s *SQLStore) LoadPrayerConfig(ctx context.Context) (adzan.PrayerConfig, error) {
	var v adzan.PrayerConfig
	err := s.load(ctx, keyPrayer, &v)
	return v, err
}

func (s *SQLStore) SavePrayerConfig(ctx context.Context, v adzan.PrayerConfig) error {
	return s.save(ctx, keyPrayer, v)
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
