package adzan

import (
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// AudioType tells an adzan clip from the tarhim pre-roll.
type AudioType string

const (
	AudioAdzan  AudioType = "adzan"
	AudioTarhim AudioType = "tarhim"
)

// TestPrayer is the currentPrayer value of a manual test playback.
const TestPrayer = "test"

// NextPrayer is the upcoming prayer as shown on the display.
type NextPrayer struct {
	Name  prayer.Name `json:"name"`
	Label string      `json:"label"`
	Time  string      `json:"time"`
}

// State is the runtime snapshot published once per tick. It is the only
// thing a display needs to render the schedule and the adzan status.
// Nil pointers are rendered as JSON null.
type State struct {
	IsPlaying        bool          `json:"isPlaying"`
	CurrentPrayer    *string       `json:"currentPrayer"`
	CurrentAudioType *AudioType    `json:"currentAudioType"`
	NextPrayer       *NextPrayer   `json:"nextPrayer"`
	PrayerTimes      *prayer.Times `json:"prayerTimes"`
	Countdown        string        `json:"countdown"`
	TarhimCountdown  *string       `json:"tarhimCountdown"`
	IsCautionActive  bool          `json:"isCautionActive"`
	CautionFor       *prayer.Name  `json:"cautionFor"`
	CautionCountdown *string       `json:"cautionCountdown"`
	CurrentPeriod    prayer.Name   `json:"currentPeriod,omitempty"`
	Hijri            string        `json:"hijri,omitempty"`
	Volume           int           `json:"volume"`
}

const zeroCountdown = "00:00:00"

// idleState is the snapshot before the first tick or after a stop.
func idleState(volume int) State {
	return State{Countdown: zeroCountdown, Volume: volume}
}

func ptr[T any](v T) *T {
	return &v
}
