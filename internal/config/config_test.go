package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// tempConfigPath returns a path to a config file inside a temp directory.
func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

func float(v float64) *float64 { return &v }

// clearEnv unsets every MASJID_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range ValidKeys {
		t.Setenv(EnvKey(key), "")
	}
}

// --- Defaults ---

func TestDefaults(t *testing.T) {
	d := Defaults()

	if d.Method != "Kemenag" {
		t.Errorf("Defaults().Method = %q, want Kemenag", d.Method)
	}
	if d.Madhab != "Shafi" {
		t.Errorf("Defaults().Madhab = %q, want Shafi", d.Madhab)
	}
	if d.TimeFormat != "24h" {
		t.Errorf("Defaults().TimeFormat = %q, want %q", d.TimeFormat, "24h")
	}
	if d.StoreDriver != "file" {
		t.Errorf("Defaults().StoreDriver = %q, want file", d.StoreDriver)
	}
	if d.AudioSink != SinkExec {
		t.Errorf("Defaults().AudioSink = %q, want %q", d.AudioSink, SinkExec)
	}

	// Location is never defaulted in the file; PrayerConfig fills it in.
	if d.Latitude != nil || d.Longitude != nil {
		t.Error("Defaults() should leave coordinates unset")
	}
}

// --- Dir and Path with XDG ---

func TestDir_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "masjid-display")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestDir_FallbackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".config", "masjid-display")
	if dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestPath_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	p, err := Path()
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}

	want := filepath.Join("/tmp/xdg-test", "masjid-display", "config.json")
	if p != want {
		t.Errorf("Path() = %q, want %q", p, want)
	}
}

// --- LoadFrom ---

func TestLoadFrom_NonExistentFile(t *testing.T) {
	cfg, err := LoadFrom("/no/such/file.json")
	if err != nil {
		t.Fatalf("LoadFrom non-existent should not error, got: %v", err)
	}
	if cfg.Name != "" || cfg.Latitude != nil {
		t.Error("LoadFrom non-existent should return empty config")
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	path := tempConfigPath(t)
	raw := `{"name": "Masjid Al-Ikhlas", "latitude": -6.2, "method": "MWL", "time_format": "12h"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	if cfg.Name != "Masjid Al-Ikhlas" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Latitude == nil || *cfg.Latitude != -6.2 {
		t.Errorf("Latitude = %v, want -6.2", cfg.Latitude)
	}
	if cfg.Method != "MWL" {
		t.Errorf("Method = %q, want MWL", cfg.Method)
	}
	if cfg.TimeFormat != "12h" {
		t.Errorf("TimeFormat = %q, want %q", cfg.TimeFormat, "12h")
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom with invalid JSON should error")
	}
}

func TestLoadFrom_LatitudeZero(t *testing.T) {
	// The equator is a valid location and must be distinguishable from
	// "not set" (nil).
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"latitude": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}
	if cfg.Latitude == nil {
		t.Fatal("Latitude should not be nil for latitude=0")
	}
}

// --- SaveTo ---

func TestSaveTo_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	cfg := &Config{Name: "London Central", Latitude: float(51.5)}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if data[len(data)-1] != '\n' {
		t.Error("saved file should end with a newline")
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("saved file has invalid JSON: %v", err)
	}
	if loaded.Name != "London Central" {
		t.Errorf("loaded Name = %q", loaded.Name)
	}
}

func TestSaveTo_OwnerOnly(t *testing.T) {
	path := tempConfigPath(t)
	cfg := &Config{MQTTPassword: "secret"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	adj := -1
	original := &Config{
		Name:             "Masjid Istiqlal",
		Latitude:         float(-6.1702),
		Longitude:        float(106.8314),
		Method:           "Kemenag",
		Madhab:           "Shafi",
		HighLatitudeRule: "twilight-angle",
		Timezone:         "Asia/Jakarta",
		HijriAdjustment:  &adj,
		TimeFormat:       "12h",
		Prayers:          "subuh,dzuhur,ashar,maghrib,isya",
		DisplayID:        "istiqlal-main",
		StoreDriver:      "sqlite",
		StoreDSN:         "/var/lib/masjid/display.db",
		MQTTURL:          "tcp://broker:1883",
		RedisAddr:        "redis:6379",
		AudioSink:        SinkRemote,
		AdzanAudio:       "/srv/audio/adzan.mp3",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error: %v", err)
	}

	for _, key := range ValidKeys {
		want, _ := original.Get(key)
		got, _ := loaded.Get(key)
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

// --- ResetAt ---

func TestResetAt_DeletesFile(t *testing.T) {
	path := tempConfigPath(t)
	cfg := &Config{Name: "x"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	if err := ResetAt(path); err != nil {
		t.Fatalf("ResetAt error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("ResetAt should have deleted the file")
	}
}

func TestResetAt_NonExistentFile(t *testing.T) {
	if err := ResetAt(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Errorf("ResetAt non-existent should not error, got: %v", err)
	}
}

// --- Set ---

func TestSet_Valid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"latitude", "-6.2088", "-6.2088"},
		{"longitude", "0", "0"},
		{"method", "makkah", "Makkah"},
		{"madhab", "hanafi", "Hanafi"},
		{"high_latitude_rule", "Seventh-Of-The-Night", "seventh-of-the-night"},
		{"timezone", "Asia/Makassar", "Asia/Makassar"},
		{"hijri_adjustment", "-2", "-2"},
		{"time_format", "12h", "12h"},
		{"prayers", "fajr, dhuhr ,isya", "fajr, dhuhr ,isya"},
		{"store_driver", "postgres", "postgres"},
		{"audio_sink", "none", "none"},
		{"display_id", "lobby", "lobby"},
		{"mqtt_url", "tcp://localhost:1883", "tcp://localhost:1883"},
		{"tarhim_audio", "/srv/tarhim.mp3", "/srv/tarhim.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var cfg Config
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSet_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"latitude", "north"},
		{"latitude", "91"},
		{"longitude", "-181"},
		{"method", "Jafari"},
		{"madhab", "maliki"},
		{"high_latitude_rule", "angle"},
		{"timezone", "Mars/Olympus"},
		{"hijri_adjustment", "3"},
		{"hijri_adjustment", "one"},
		{"time_format", "25h"},
		{"prayers", "subuh,brunch"},
		{"store_driver", "mongo"},
		{"audio_sink", "speaker"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var cfg Config
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) should error", tt.key, tt.value)
			}
		})
	}
}

func TestSet_UnknownKey(t *testing.T) {
	var cfg Config
	err := cfg.Set("city", "Jakarta")
	if err == nil {
		t.Fatal("Set with unknown key should error")
	}
	if !strings.Contains(err.Error(), "valid keys") {
		t.Errorf("error should list valid keys, got: %v", err)
	}
}

// --- Get ---

func TestGet_EmptyConfig(t *testing.T) {
	var cfg Config
	for _, key := range ValidKeys {
		v, err := cfg.Get(key)
		if err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
		if v != "" {
			t.Errorf("Get(%q) = %q, want empty", key, v)
		}
	}
}

func TestGet_UnknownKey(t *testing.T) {
	var cfg Config
	if _, err := cfg.Get("school"); err == nil {
		t.Error("Get with unknown key should error")
	}
}

// --- Environment ---

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MASJID_LATITUDE", "21.4225")
	t.Setenv("MASJID_METHOD", "makkah")
	t.Setenv("MASJID_MQTT_URL", "tcp://env:1883")

	cfg := &Config{Method: "MWL", Name: "from file"}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv error: %v", err)
	}

	if cfg.Latitude == nil || *cfg.Latitude != 21.4225 {
		t.Errorf("Latitude = %v", cfg.Latitude)
	}
	if cfg.Method != "Makkah" {
		t.Errorf("Method = %q, env should win over file", cfg.Method)
	}
	if cfg.MQTTURL != "tcp://env:1883" {
		t.Errorf("MQTTURL = %q", cfg.MQTTURL)
	}
	if cfg.Name != "from file" {
		t.Errorf("Name = %q, unset env should keep file value", cfg.Name)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("MASJID_LONGITUDE", "east")

	cfg := &Config{}
	err := cfg.ApplyEnv()
	if err == nil {
		t.Fatal("ApplyEnv should reject an invalid value")
	}
	if !strings.Contains(err.Error(), "MASJID_LONGITUDE") {
		t.Errorf("error should name the variable, got: %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	data := "MASJID_DISPLAY_ID=lobby\nMASJID_REDIS_ADDR=redis:6379\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	// Already-set variables win over the file.
	t.Setenv("MASJID_REDIS_ADDR", "override:6379")
	// godotenv sets variables with os.Setenv; register it for cleanup.
	t.Setenv("MASJID_DISPLAY_ID", "")
	os.Unsetenv("MASJID_DISPLAY_ID")

	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}

	cfg := &Config{}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.DisplayID != "lobby" {
		t.Errorf("DisplayID = %q, want lobby", cfg.DisplayID)
	}
	if cfg.RedisAddr != "override:6379" {
		t.Errorf("RedisAddr = %q, want override:6379", cfg.RedisAddr)
	}
}

// --- Derived values ---

func TestPrayerConfig_Defaults(t *testing.T) {
	var cfg Config
	pc, err := cfg.PrayerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if pc.Latitude != -6.2088 || pc.CalculationMethod != prayer.MethodKemenag {
		t.Errorf("PrayerConfig() = %+v, want the Jakarta default", pc)
	}
}

func TestPrayerConfig_Overrides(t *testing.T) {
	adj := 1
	cfg := Config{
		Latitude:         float(0),
		Longitude:        float(0),
		Method:           "ISNA",
		Madhab:           "Hanafi",
		HighLatitudeRule: "twilight-angle",
		Timezone:         "UTC",
		HijriAdjustment:  &adj,
	}
	pc, err := cfg.PrayerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if pc.Latitude != 0 || pc.Longitude != 0 {
		t.Errorf("coordinates = %v,%v, want 0,0", pc.Latitude, pc.Longitude)
	}
	if pc.CalculationMethod != prayer.MethodISNA || pc.Madhab != prayer.MadhabHanafi {
		t.Errorf("method/madhab = %v/%v", pc.CalculationMethod, pc.Madhab)
	}
	if pc.HighLatitudeRule != prayer.TwilightAngle {
		t.Errorf("HighLatitudeRule = %v", pc.HighLatitudeRule)
	}
	if pc.Timezone != "UTC" || pc.HijriAdjustment != 1 {
		t.Errorf("Timezone/HijriAdjustment = %q/%d", pc.Timezone, pc.HijriAdjustment)
	}
}

func TestPrayerConfig_BadFileValue(t *testing.T) {
	cfg := Config{Method: "Jafari"}
	if _, err := cfg.PrayerConfig(); err == nil {
		t.Error("PrayerConfig should reject an unknown method")
	}
}

func TestPrayerNames(t *testing.T) {
	var cfg Config
	if got := cfg.PrayerNames(); len(got) != len(prayer.DefaultNames) {
		t.Errorf("PrayerNames() = %v, want defaults", got)
	}

	cfg.Prayers = "imsak, fajr,isha"
	got := cfg.PrayerNames()
	want := []prayer.Name{prayer.Imsak, prayer.Subuh, prayer.Isya}
	if len(got) != len(want) {
		t.Fatalf("PrayerNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PrayerNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClockLayout(t *testing.T) {
	cfg := Config{TimeFormat: "12h"}
	if got := cfg.ClockLayout(); got != "3:04 PM" {
		t.Errorf("ClockLayout() = %q", got)
	}
	cfg.TimeFormat = ""
	if got := cfg.ClockLayout(); got != "15:04" {
		t.Errorf("ClockLayout() = %q", got)
	}
}

func TestAssets(t *testing.T) {
	cfg := Config{SubuhAudio: "/srv/subuh.mp3"}
	a := cfg.Assets()
	if a.Subuh != "/srv/subuh.mp3" {
		t.Errorf("Subuh = %q", a.Subuh)
	}
	if a.Adzan == "" || a.Tarhim == "" {
		t.Error("unset clips should keep their defaults")
	}
}

func TestAudioCommandArgs(t *testing.T) {
	cfg := Config{AudioCommand: "ffplay -nodisp -autoexit {src}"}
	got := cfg.AudioCommandArgs()
	if len(got) != 4 || got[3] != "{src}" {
		t.Errorf("AudioCommandArgs() = %v", got)
	}
	if (&Config{}).AudioCommandArgs() != nil {
		t.Error("unset audio_command should yield nil")
	}
}

// --- ValidKeys ---

func TestValidKeys_AllSettable(t *testing.T) {
	for _, key := range ValidKeys {
		var cfg Config
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("ValidKeys has %q but Get rejects it", key)
		}
	}
}

// --- OmitEmpty JSON behavior ---

func TestConfig_OmitEmpty_JSON(t *testing.T) {
	data, err := json.Marshal(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("empty Config JSON = %s, want {}", data)
	}
}
