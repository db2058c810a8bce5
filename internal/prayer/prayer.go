package prayer

import (
	"fmt"
	"strings"
	"time"
)

// ClockLayout is the zero-padded 24-hour layout used for schedule display.
const ClockLayout = "15:04"

// Name identifies a slot of the daily schedule.
type Name string

const (
	Imsak       Name = "imsak"
	Subuh       Name = "subuh"
	Terbit      Name = "terbit"
	Dhuha       Name = "dhuha"
	Dzuhur      Name = "dzuhur"
	Ashar       Name = "ashar"
	Maghrib     Name = "maghrib"
	Isya        Name = "isya"
	TengahMalam Name = "tengahMalam"
	Sepertiga   Name = "sepertiga"

	// BeforeSubuh is the current period between midnight and today's Subuh.
	BeforeSubuh Name = "before-subuh"
)

// ScheduleNames lists every named instant of a schedule in display order.
var ScheduleNames = []Name{
	Imsak, Subuh, Terbit, Dhuha, Dzuhur, Ashar, Maghrib, Isya, TengahMalam, Sepertiga,
}

// DefaultNames are the periods the resolver walks through, in order.
var DefaultNames = []Name{Subuh, Terbit, Dzuhur, Ashar, Maghrib, Isya}

// AdzanNames are the five prayers that have an adzan.
var AdzanNames = []Name{Subuh, Dzuhur, Ashar, Maghrib, Isya}

// ShortNames maps prayer names to short abbreviations.
var ShortNames = map[Name]string{
	Imsak:       "Im",
	Subuh:       "S",
	Terbit:      "T",
	Dhuha:       "Dh",
	Dzuhur:      "D",
	Ashar:       "A",
	Maghrib:     "M",
	Isya:        "I",
	TengahMalam: "TM",
	Sepertiga:   "L3",
}

// Labels maps prayer names to their display labels.
var Labels = map[Name]string{
	Imsak:       "Imsak",
	Subuh:       "Subuh",
	Terbit:      "Terbit",
	Dhuha:       "Dhuha",
	Dzuhur:      "Dzuhur",
	Ashar:       "Ashar",
	Maghrib:     "Maghrib",
	Isya:        "Isya",
	TengahMalam: "Tengah Malam",
	Sepertiga:   "Sepertiga Malam",
	BeforeSubuh: "Sebelum Subuh",
}

// Label returns the display label of n.
func (n Name) Label() string {
	if l, ok := Labels[n]; ok {
		return l
	}
	return string(n)
}

// ParseName resolves a schedule name case-insensitively. The international
// spellings fajr, sunrise, dhuhr, asr and isha are accepted as aliases.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for _, n := range ScheduleNames {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	switch strings.ToLower(s) {
	case "fajr":
		return Subuh, nil
	case "sunrise":
		return Terbit, nil
	case "dhuhr":
		return Dzuhur, nil
	case "asr":
		return Ashar, nil
	case "isha":
		return Isya, nil
	case "midnight":
		return TengahMalam, nil
	case "lastthird":
		return Sepertiga, nil
	}
	return "", fmt.Errorf("unknown prayer name %q", s)
}

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name Name      `json:"name"`
	Time time.Time `json:"time"`
}

// Next finds the first prayer strictly after now.
// If all prayers have passed, it returns nil.
func Next(prayers []Prayer, now time.Time) *Prayer {
	now = now.Truncate(time.Second)
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// Current finds the prayer whose start is the latest instant not after now.
// It returns nil before the first prayer.
func Current(prayers []Prayer, now time.Time) *Prayer {
	now = now.Truncate(time.Second)
	var cur *Prayer
	for i := range prayers {
		if !prayers[i].Time.After(now) {
			cur = &prayers[i]
		}
	}
	return cur
}

// NextPrayer returns the next of DefaultNames after now, rolling over to
// tomorrow's Subuh once today's Isya has passed.
func NextPrayer(now time.Time, loc Location, s Settings) (*Prayer, error) {
	today, err := Calculate(now, loc, s)
	if err != nil {
		return nil, err
	}
	prayers, err := today.Prayers(DefaultNames)
	if err != nil {
		return nil, err
	}
	if next := Next(prayers, now); next != nil {
		return next, nil
	}

	tomorrow, err := Calculate(now.AddDate(0, 0, 1), loc, s)
	if err != nil {
		return nil, err
	}
	return &Prayer{Name: Subuh, Time: tomorrow.Subuh}, nil
}

// CurrentPrayer returns the period in effect at now, or BeforeSubuh.
func CurrentPrayer(now time.Time, loc Location, s Settings) (Name, error) {
	today, err := Calculate(now, loc, s)
	if err != nil {
		return "", err
	}
	prayers, err := today.Prayers(DefaultNames)
	if err != nil {
		return "", err
	}
	if cur := Current(prayers, now); cur != nil {
		return cur.Name, nil
	}
	return BeforeSubuh, nil
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(prayer Prayer, now time.Time) time.Duration {
	return prayer.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatCountdown formats a duration as HH:MM:SS, clamped at 00:00:00.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
