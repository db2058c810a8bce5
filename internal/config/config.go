// Package config provides persistent configuration for the masjid display.
//
// Configuration is stored as JSON at ~/.config/masjid-display/config.json
// (XDG-compliant). Every key can also come from a MASJID_* environment
// variable, optionally loaded from a .env file. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

const (
	configDirName  = "masjid-display"
	configFileName = "config.json"

	// EnvPrefix prefixes the environment variable of every key.
	EnvPrefix = "MASJID_"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"name",
	"latitude", "longitude",
	"method", "madhab", "high_latitude_rule",
	"timezone", "hijri_adjustment",
	"time_format", "prayers",
	"display_id", "listen",
	"store_driver", "store_dsn",
	"mqtt_url", "mqtt_username", "mqtt_password",
	"redis_addr", "redis_password",
	"audio_sink", "audio_command",
	"adzan_audio", "subuh_audio", "tarhim_audio",
}

// Audio sinks accepted by audio_sink.
const (
	SinkExec   = "exec"
	SinkRemote = "remote"
	SinkNone   = "none"
)

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	Name             string   `json:"name,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`  // pointer so the equator is a valid setting
	Longitude        *float64 `json:"longitude,omitempty"` // pointer so the meridian is a valid setting
	Method           string   `json:"method,omitempty"`
	Madhab           string   `json:"madhab,omitempty"`
	HighLatitudeRule string   `json:"high_latitude_rule,omitempty"`
	Timezone         string   `json:"timezone,omitempty"`
	HijriAdjustment  *int     `json:"hijri_adjustment,omitempty"`
	TimeFormat       string   `json:"time_format,omitempty"` // "12h" or "24h"
	Prayers          string   `json:"prayers,omitempty"`     // comma-separated list

	DisplayID     string `json:"display_id,omitempty"`
	Listen        string `json:"listen,omitempty"`
	StoreDriver   string `json:"store_driver,omitempty"`
	StoreDSN      string `json:"store_dsn,omitempty"`
	MQTTURL       string `json:"mqtt_url,omitempty"`
	MQTTUsername  string `json:"mqtt_username,omitempty"`
	MQTTPassword  string `json:"mqtt_password,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`

	AudioSink    string `json:"audio_sink,omitempty"`
	AudioCommand string `json:"audio_command,omitempty"` // {src} and {volume} are substituted
	AdzanAudio   string `json:"adzan_audio,omitempty"`
	SubuhAudio   string `json:"subuh_audio,omitempty"`
	TarhimAudio  string `json:"tarhim_audio,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		Method:           string(prayer.MethodKemenag),
		Madhab:           string(prayer.MadhabShafi),
		HighLatitudeRule: string(prayer.MiddleOfTheNight),
		TimeFormat:       "24h",
		DisplayID:        "default",
		Listen:           ":8080",
		StoreDriver:      "file",
		AudioSink:        SinkExec,
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	// The file may hold passwords.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
// With no arguments it looks for ./.env.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// EnvKey returns the environment variable for key, e.g. MASJID_LATITUDE.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides c with every non-empty MASJID_* variable.
func (c *Config) ApplyEnv() error {
	for _, key := range ValidKeys {
		v := os.Getenv(EnvKey(key))
		if v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvKey(key), err)
		}
	}
	return nil
}

// stringField returns the field behind a key that takes any string.
func (c *Config) stringField(key string) *string {
	switch key {
	case "name":
		return &c.Name
	case "display_id":
		return &c.DisplayID
	case "listen":
		return &c.Listen
	case "store_dsn":
		return &c.StoreDSN
	case "mqtt_url":
		return &c.MQTTURL
	case "mqtt_username":
		return &c.MQTTUsername
	case "mqtt_password":
		return &c.MQTTPassword
	case "redis_addr":
		return &c.RedisAddr
	case "redis_password":
		return &c.RedisPassword
	case "audio_command":
		return &c.AudioCommand
	case "adzan_audio":
		return &c.AdzanAudio
	case "subuh_audio":
		return &c.SubuhAudio
	case "tarhim_audio":
		return &c.TarhimAudio
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = &v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = &v
	case "method":
		m, err := prayer.ParseMethod(value)
		if err != nil {
			return err
		}
		c.Method = string(m)
	case "madhab":
		m, err := prayer.ParseMadhab(value)
		if err != nil {
			return err
		}
		c.Madhab = string(m)
	case "high_latitude_rule":
		r, err := prayer.ParseHighLatitudeRule(value)
		if err != nil {
			return err
		}
		c.HighLatitudeRule = string(r)
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "hijri_adjustment":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid hijri_adjustment %q: must be an integer", value)
		}
		if v < -2 || v > 2 {
			return fmt.Errorf("invalid hijri_adjustment %q: must be between -2 and 2", value)
		}
		c.HijriAdjustment = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		if _, err := ParsePrayers(value); err != nil {
			return err
		}
		c.Prayers = value
	case "store_driver":
		switch value {
		case "file", "sqlite", "postgres":
		default:
			return fmt.Errorf("invalid store_driver %q: must be file, sqlite or postgres", value)
		}
		c.StoreDriver = value
	case "audio_sink":
		switch value {
		case SinkExec, SinkRemote, SinkNone:
		default:
			return fmt.Errorf("invalid audio_sink %q: must be exec, remote or none", value)
		}
		c.AudioSink = value
	default:
		f := c.stringField(key)
		if f == nil {
			return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
		}
		*f = value
	}
	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "latitude":
		return formatFloat(c.Latitude), nil
	case "longitude":
		return formatFloat(c.Longitude), nil
	case "method":
		return c.Method, nil
	case "madhab":
		return c.Madhab, nil
	case "high_latitude_rule":
		return c.HighLatitudeRule, nil
	case "timezone":
		return c.Timezone, nil
	case "hijri_adjustment":
		if c.HijriAdjustment == nil {
			return "", nil
		}
		return strconv.Itoa(*c.HijriAdjustment), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "store_driver":
		return c.StoreDriver, nil
	case "audio_sink":
		return c.AudioSink, nil
	}
	if f := c.stringField(key); f != nil {
		return *f, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ParsePrayers parses a comma-separated list of prayer names.
func ParsePrayers(value string) ([]prayer.Name, error) {
	var names []prayer.Name
	for _, n := range strings.Split(value, ",") {
		name, err := prayer.ParseName(n)
		if err != nil {
			return nil, fmt.Errorf("invalid prayer name %q in prayers list", strings.TrimSpace(n))
		}
		names = append(names, name)
	}
	return names, nil
}

// PrayerNames returns the configured prayers, or prayer.DefaultNames.
func (c *Config) PrayerNames() []prayer.Name {
	if c.Prayers == "" {
		return prayer.DefaultNames
	}
	names, err := ParsePrayers(c.Prayers)
	if err != nil {
		return prayer.DefaultNames
	}
	return names
}

// ClockLayout returns the Go time layout for the configured time format.
func (c *Config) ClockLayout() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return prayer.ClockLayout
}

// PrayerConfig converts c into calculation input. Unset coordinates fall
// back to the default location.
func (c *Config) PrayerConfig() (adzan.PrayerConfig, error) {
	out := adzan.DefaultPrayerConfig()
	if c.Latitude != nil {
		out.Latitude = *c.Latitude
	}
	if c.Longitude != nil {
		out.Longitude = *c.Longitude
	}
	if c.Method != "" {
		m, err := prayer.ParseMethod(c.Method)
		if err != nil {
			return out, err
		}
		out.CalculationMethod = m
	}
	if c.Madhab != "" {
		m, err := prayer.ParseMadhab(c.Madhab)
		if err != nil {
			return out, err
		}
		out.Madhab = m
	}
	if c.HighLatitudeRule != "" {
		r, err := prayer.ParseHighLatitudeRule(c.HighLatitudeRule)
		if err != nil {
			return out, err
		}
		out.HighLatitudeRule = r
	}
	if c.HijriAdjustment != nil {
		out.HijriAdjustment = *c.HijriAdjustment
	}
	out.Timezone = c.Timezone
	return out, nil
}

// Assets returns the configured audio clips over the defaults.
func (c *Config) Assets() adzan.Assets {
	a := adzan.DefaultAssets()
	if c.AdzanAudio != "" {
		a.Adzan = c.AdzanAudio
	}
	if c.SubuhAudio != "" {
		a.Subuh = c.SubuhAudio
	}
	if c.TarhimAudio != "" {
		a.Tarhim = c.TarhimAudio
	}
	return a
}

// AudioCommandArgs splits audio_command into argv, or returns nil when unset.
func (c *Config) AudioCommandArgs() []string {
	args := strings.Fields(c.AudioCommand)
	if len(args) == 0 {
		return nil
	}
	return args
}
