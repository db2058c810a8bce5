// Package store persists the settings a display is configured with.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
)

// ErrNotFound is returned when nothing has been saved yet.
var ErrNotFound = errors.New("settings not found")

const (
	keyAdzan  = "adzan"
	keyPrayer = "prayer"
)

// Store loads and saves display settings. Payloads keep the JSON wire
// names of the settings types.
type Store interface {
	LoadAdzanSettings(ctx context.Context) (adzan.Settings, error)
	SaveAdzanSettings(ctx context.Context, s adzan.Settings) error
	LoadPrayerConfig(ctx context.Context) (adzan.PrayerConfig, error)
	SavePrayerConfig(ctx context.Context, c adzan.PrayerConfig) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects a backend.
type Options struct {
	Driver string // file (default), sqlite or postgres
	DSN    string // directory for file, data source name otherwise
}

// Open returns the backend named by o.Driver.
func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Driver {
	case "", DriverFile:
		return NewFileStore(o.DSN)
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, o.Driver, o.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q: must be file, sqlite or postgres", o.Driver)
}

// AdzanSettingsOrDefault loads the adzan settings, falling back to the
// defaults when none were saved.
func AdzanSettingsOrDefault(ctx context.Context, s Store) (adzan.Settings, error) {
	v, err := s.LoadAdzanSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		return adzan.DefaultSettings(), nil
	}
	return v, err
}

// PrayerConfigOr loads the prayer configuration, falling back to def when
// none was saved.
func PrayerConfigOr(ctx context.Context, s Store, def adzan.PrayerConfig) (adzan.PrayerConfig, error) {
	v, err := s.LoadPrayerConfig(ctx)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}
