package adzan

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// EnabledPrayers toggles the automatic adzan per prayer. Imsak never plays
// an adzan; its flag only controls the imsak caution countdown.
type EnabledPrayers struct {
	Imsak   bool `json:"imsak"`
	Subuh   bool `json:"subuh"`
	Dzuhur  bool `json:"dzuhur"`
	Ashar   bool `json:"ashar"`
	Maghrib bool `json:"maghrib"`
	Isya    bool `json:"isya"`
}

// Enabled reports whether n is switched on.
func (e EnabledPrayers) Enabled(n prayer.Name) bool {
	switch n {
	case prayer.Imsak:
		return e.Imsak
	case prayer.Subuh:
		return e.Subuh
	case prayer.Dzuhur:
		return e.Dzuhur
	case prayer.Ashar:
		return e.Ashar
	case prayer.Maghrib:
		return e.Maghrib
	case prayer.Isya:
		return e.Isya
	}
	return false
}

// Settings is the persisted adzan configuration. Field names are the wire
// format shared with the dashboard.
type Settings struct {
	Enabled                   bool           `json:"enabled"`
	Volume                    int            `json:"volume"`
	EnabledPrayers            EnabledPrayers `json:"enabledPrayers"`
	UseSubuhAdzan             bool           `json:"useSubuhAdzan"`
	TarhimEnabled             bool           `json:"tarhimEnabled"`
	TarhimMinutesBeforeImsak  int            `json:"tarhimMinutesBeforeImsak"`
	CautionEnabled            bool           `json:"cautionEnabled"`
	CautionSecondsBeforeAdzan int            `json:"cautionSecondsBeforeAdzan"`
	CautionSecondsBeforeImsak int            `json:"cautionSecondsBeforeImsak"`
}

// DefaultSettings returns the settings of a fresh display.
func DefaultSettings() Settings {
	return Settings{
		Enabled: true,
		Volume:  80,
		EnabledPrayers: EnabledPrayers{
			Imsak:   true,
			Subuh:   true,
			Dzuhur:  true,
			Ashar:   true,
			Maghrib: true,
			Isya:    true,
		},
		UseSubuhAdzan:             true,
		TarhimEnabled:             false,
		TarhimMinutesBeforeImsak:  10,
		CautionEnabled:            true,
		CautionSecondsBeforeAdzan: 60,
		CautionSecondsBeforeImsak: 60,
	}
}

// Normalize clamps volume to [0,100] and offsets to non-negative values.
func (s Settings) Normalize() Settings {
	s.Volume = ClampVolume(s.Volume)
	s.TarhimMinutesBeforeImsak = max(s.TarhimMinutesBeforeImsak, 0)
	s.CautionSecondsBeforeAdzan = max(s.CautionSecondsBeforeAdzan, 0)
	s.CautionSecondsBeforeImsak = max(s.CautionSecondsBeforeImsak, 0)
	return s
}

// ClampVolume bounds v to [0,100].
func ClampVolume(v int) int {
	return min(max(v, 0), 100)
}

// EnabledPrayersPatch carries optional per-prayer toggles.
type EnabledPrayersPatch struct {
	Imsak   *bool `json:"imsak,omitempty"`
	Subuh   *bool `json:"subuh,omitempty"`
	Dzuhur  *bool `json:"dzuhur,omitempty"`
	Ashar   *bool `json:"ashar,omitempty"`
	Maghrib *bool `json:"maghrib,omitempty"`
	Isya    *bool `json:"isya,omitempty"`
}

// SettingsPatch is a partial update. Nil fields keep their current value.
type SettingsPatch struct {
	Enabled                   *bool                `json:"enabled,omitempty"`
	Volume                    *int                 `json:"volume,omitempty"`
	EnabledPrayers            *EnabledPrayersPatch `json:"enabledPrayers,omitempty"`
	UseSubuhAdzan             *bool                `json:"useSubuhAdzan,omitempty"`
	TarhimEnabled             *bool                `json:"tarhimEnabled,omitempty"`
	TarhimMinutesBeforeImsak  *int                 `json:"tarhimMinutesBeforeImsak,omitempty"`
	CautionEnabled            *bool                `json:"cautionEnabled,omitempty"`
	CautionSecondsBeforeAdzan *int                 `json:"cautionSecondsBeforeAdzan,omitempty"`
	CautionSecondsBeforeImsak *int                 `json:"cautionSecondsBeforeImsak,omitempty"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Merge applies p on top of s. The last write wins; the result is normalized.
func (s Settings) Merge(p SettingsPatch) Settings {
	set(&s.Enabled, p.Enabled)
	set(&s.Volume, p.Volume)
	set(&s.UseSubuhAdzan, p.UseSubuhAdzan)
	set(&s.TarhimEnabled, p.TarhimEnabled)
	set(&s.TarhimMinutesBeforeImsak, p.TarhimMinutesBeforeImsak)
	set(&s.CautionEnabled, p.CautionEnabled)
	set(&s.CautionSecondsBeforeAdzan, p.CautionSecondsBeforeAdzan)
	set(&s.CautionSecondsBeforeImsak, p.CautionSecondsBeforeImsak)
	if ep := p.EnabledPrayers; ep != nil {
		set(&s.EnabledPrayers.Imsak, ep.Imsak)
		set(&s.EnabledPrayers.Subuh, ep.Subuh)
		set(&s.EnabledPrayers.Dzuhur, ep.Dzuhur)
		set(&s.EnabledPrayers.Ashar, ep.Ashar)
		set(&s.EnabledPrayers.Maghrib, ep.Maghrib)
		set(&s.EnabledPrayers.Isya, ep.Isya)
	}
	return s.Normalize()
}

// Assets are the three audio clips a display needs, as paths or URLs.
type Assets struct {
	Adzan  string `json:"adzan"`
	Subuh  string `json:"subuh"`
	Tarhim string `json:"tarhim"`
}

// DefaultAssets returns the bundled clip locations.
func DefaultAssets() Assets {
	return Assets{
		Adzan:  "assets/audio/adzan.mp3",
		Subuh:  "assets/audio/adzan-subuh.mp3",
		Tarhim: "assets/audio/tarhim.mp3",
	}
}

// forPrayer picks the adzan clip for n.
func (a Assets) forPrayer(n prayer.Name, useSubuh bool) string {
	if n == prayer.Subuh && useSubuh && a.Subuh != "" {
		return a.Subuh
	}
	return a.Adzan
}

// PrayerConfig is the location and calculation input of a display.
type PrayerConfig struct {
	Latitude          float64                 `json:"latitude"`
	Longitude         float64                 `json:"longitude"`
	CalculationMethod prayer.Method           `json:"calculationMethod"`
	Madhab            prayer.Madhab           `json:"madhab,omitempty"`
	Adjustments       map[prayer.Key]int      `json:"adjustments,omitempty"`
	HighLatitudeRule  prayer.HighLatitudeRule `json:"highLatitudeRule,omitempty"`
	Timezone          string                  `json:"timezone,omitempty"`
	HijriAdjustment   int                     `json:"hijriAdjustment,omitempty"`
}

// DefaultPrayerConfig is centred on Jakarta with the Kemenag method.
func DefaultPrayerConfig() PrayerConfig {
	return PrayerConfig{
		Latitude:          -6.2088,
		Longitude:         106.8456,
		CalculationMethod: prayer.MethodKemenag,
		Madhab:            prayer.MadhabShafi,
		HighLatitudeRule:  prayer.MiddleOfTheNight,
	}
}

// Location returns the coordinates of c.
func (c PrayerConfig) Location() prayer.Location {
	return prayer.Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Settings returns the calculation settings of c.
func (c PrayerConfig) Settings() prayer.Settings {
	return prayer.Settings{
		Method:           c.CalculationMethod,
		Madhab:           c.Madhab,
		Adjustments:      c.Adjustments,
		HighLatitudeRule: c.HighLatitudeRule,
	}
}

// TimeLocation resolves the configured IANA zone. An empty zone means the
// host's local time.
func (c PrayerConfig) TimeLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
