package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
)

// FileStore keeps each settings document in its own JSON file.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
// If dir is empty, it defaults to ~/.local/share/masjid-display/.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "masjid-display")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data directory %s: %w", dir, err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStore) load(key string, v any) error {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.path(key), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.path(key), err)
	}
	return nil
}

// save writes through a temp file so a crash never leaves half a document.
func (f *FileStore) save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, key+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path(key), err)
	}
	return nil
}

func (f *FileStore) LoadAdzanSettings(_ context.Context) (adzan.Settings, error) {
	var s adzan.Settings
	err := f.load(keyAdzan, &s)
	return s, err
}

func (f *FileStore) SaveAdzanSettings(_ context.Context, s adzan.Settings) error {
	return f.save(keyAdzan, s)
}

func (f *FileStore) LoadPrayerConfig(_ context.Context) (adzan.PrayerConfig, error) {
	var c adzan.PrayerConfig
	err := f.load(keyPrayer, &c)
	return c, err
}

func (f *FileStore) SavePrayerConfig(_ context.Context, c adzan.PrayerConfig) error {
	return f.save(keyPrayer, c)
}

func (f *FileStore) Close() error {
	return nil
}
