package prayer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
)

// ErrInvalidLocation is returned when coordinates are non-finite or out of
// range. Callers should show a loading/error state instead of times.
var ErrInvalidLocation = errors.New("invalid location")

const (
	imsakBeforeSubuh = 10 * time.Minute
	dhuhaAfterTerbit = 15 * time.Minute
)

// Location holds geographic coordinates in degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinates can be used for a calculation.
func (l Location) Validate() error {
	switch {
	case math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0):
		return fmt.Errorf("%w: latitude is not a finite number", ErrInvalidLocation)
	case math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0):
		return fmt.Errorf("%w: longitude is not a finite number", ErrInvalidLocation)
	case l.Latitude < -90 || l.Latitude > 90:
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidLocation, l.Latitude)
	case l.Longitude < -180 || l.Longitude > 180:
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Schedule holds the named instants of one calendar day at one location.
// All instants are in the location of the date passed to Calculate.
type Schedule struct {
	Date        time.Time
	Imsak       time.Time
	Subuh       time.Time
	Terbit      time.Time
	Dhuha       time.Time
	Dzuhur      time.Time
	Ashar       time.Time
	Maghrib     time.Time
	Isya        time.Time
	TengahMalam time.Time
	Sepertiga   time.Time
}

// Calculate computes the prayer schedule for the calendar day of date at loc.
// Only the year, month and day of date matter; its location decides the
// wall clock of the returned instants.
func Calculate(date time.Time, loc Location, s Settings) (*Schedule, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	tz := date.Location()
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, tz)

	today := adjusted(day, loc, s)
	tomorrow := adjusted(day.AddDate(0, 0, 1), loc, s)
	night := tomorrow.fajr.Sub(today.maghrib)

	return &Schedule{
		Date:        day,
		Imsak:       today.fajr.Add(-imsakBeforeSubuh),
		Subuh:       today.fajr,
		Terbit:      today.sunrise,
		Dhuha:       today.sunrise.Add(dhuhaAfterTerbit),
		Dzuhur:      today.dhuhr,
		Ashar:       today.asr,
		Maghrib:     today.maghrib,
		Isya:        today.isha,
		TengahMalam: today.maghrib.Add(night / 2).Round(time.Minute),
		Sepertiga:   today.maghrib.Add(night * 2 / 3).Round(time.Minute),
	}, nil
}

type dayInstants struct {
	fajr, sunrise, dhuhr, asr, maghrib, isha time.Time
}

// adjusted converts raw hours into rounded, adjusted instants for day.
func adjusted(day time.Time, loc Location, s Settings) dayInstants {
	y, m, d := day.Date()

	interval := s.Method.Params().IshaInterval
	if interval > 0 && hijri.IsRamadan(day) {
		interval += 30
	}
	raw := computeRaw(y, int(m), d, loc, s, interval)

	// Raw hours are local mean time; shift by longitude to get UTC.
	midnightUTC := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	instant := func(hours float64, k Key) time.Time {
		utc := hours - loc.Longitude/15
		t := midnightUTC.Add(time.Duration(utc * float64(time.Hour)))
		t = t.Add(time.Duration(s.adjustment(k)) * time.Minute)
		return t.Round(time.Minute).In(day.Location())
	}

	return dayInstants{
		fajr:    instant(raw.fajr, KeyFajr),
		sunrise: instant(raw.sunrise, KeySunrise),
		dhuhr:   instant(raw.dhuhr, KeyDhuhr),
		asr:     instant(raw.asr, KeyAsr),
		maghrib: instant(raw.maghrib, KeyMaghrib),
		isha:    instant(raw.isha, KeyIsha),
	}
}

// Get returns the instant for name. ok is false for unknown names.
func (s *Schedule) Get(name Name) (time.Time, bool) {
	switch name {
	case Imsak:
		return s.Imsak, true
	case Subuh:
		return s.Subuh, true
	case Terbit:
		return s.Terbit, true
	case Dhuha:
		return s.Dhuha, true
	case Dzuhur:
		return s.Dzuhur, true
	case Ashar:
		return s.Ashar, true
	case Maghrib:
		return s.Maghrib, true
	case Isya:
		return s.Isya, true
	case TengahMalam:
		return s.TengahMalam, true
	case Sepertiga:
		return s.Sepertiga, true
	}
	return time.Time{}, false
}

// Prayers returns the selected names as Prayer values, in the order given.
func (s *Schedule) Prayers(names []Name) ([]Prayer, error) {
	prayers := make([]Prayer, 0, len(names))
	for _, n := range names {
		t, ok := s.Get(n)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", n)
		}
		prayers = append(prayers, Prayer{Name: n, Time: t})
	}
	return prayers, nil
}

// Format returns every named instant formatted with layout, keyed by name.
func (s *Schedule) Format(layout string) map[Name]string {
	out := make(map[Name]string, len(ScheduleNames))
	for _, n := range ScheduleNames {
		t, _ := s.Get(n)
		out[n] = t.Format(layout)
	}
	return out
}

// MarshalJSON renders the schedule as zero-padded 24-hour HH:MM strings.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	out := struct {
		Date string `json:"date"`
		Times
	}{
		Date:  s.Date.Format("2006-01-02"),
		Times: s.Times(),
	}
	return json.Marshal(out)
}

// Times is the display form of a schedule.
type Times struct {
	Imsak       string `json:"imsak"`
	Subuh       string `json:"subuh"`
	Terbit      string `json:"terbit"`
	Dhuha       string `json:"dhuha"`
	Dzuhur      string `json:"dzuhur"`
	Ashar       string `json:"ashar"`
	Maghrib     string `json:"maghrib"`
	Isya        string `json:"isya"`
	TengahMalam string `json:"tengahMalam"`
	Sepertiga   string `json:"sepertiga"`
}

// Times formats the schedule as HH:MM strings.
func (s *Schedule) Times() Times {
	return Times{
		Imsak:       s.Imsak.Format(ClockLayout),
		Subuh:       s.Subuh.Format(ClockLayout),
		Terbit:      s.Terbit.Format(ClockLayout),
		Dhuha:       s.Dhuha.Format(ClockLayout),
		Dzuhur:      s.Dzuhur.Format(ClockLayout),
		Ashar:       s.Ashar.Format(ClockLayout),
		Maghrib:     s.Maghrib.Format(ClockLayout),
		Isya:        s.Isya.Format(ClockLayout),
		TengahMalam: s.TengahMalam.Format(ClockLayout),
		Sepertiga:   s.Sepertiga.Format(ClockLayout),
	}
}
