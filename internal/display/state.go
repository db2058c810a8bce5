package display

import (
	"fmt"
	"strings"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// RenderState formats a runtime snapshot as an indented key/value block.
func RenderState(st adzan.State) string {
	var sb strings.Builder
	line := func(key, value string) {
		fmt.Fprintf(&sb, "  %-8s %s\n", key, value)
	}

	if st.Hijri != "" {
		line("Hijri", st.Hijri)
	}

	switch {
	case st.PrayerTimes == nil:
		line("Next", Gray("loading prayer times"))
	case st.NextPrayer != nil:
		line("Next", Accent(fmt.Sprintf("%s %s", st.NextPrayer.Label, st.NextPrayer.Time))+"  -"+st.Countdown)
	}
	if st.CurrentPeriod != "" {
		line("Period", st.CurrentPeriod.Label())
	}
	if st.TarhimCountdown != nil {
		line("Tarhim", "in "+*st.TarhimCountdown)
	}
	if st.IsCautionActive && st.CautionFor != nil && st.CautionCountdown != nil {
		line("Caution", Alert(fmt.Sprintf("%s in %s", st.CautionFor.Label(), *st.CautionCountdown)))
	}

	playing := Gray("idle")
	if st.IsPlaying {
		what := ""
		if st.CurrentAudioType != nil {
			what = string(*st.CurrentAudioType)
		}
		if st.CurrentPrayer != nil {
			name := *st.CurrentPrayer
			if n, err := prayer.ParseName(name); err == nil {
				name = n.Label()
			}
			what = strings.TrimSpace(what + " " + name)
		}
		playing = Green(what)
	}
	line("Audio", playing)
	line("Volume", fmt.Sprintf("%d", st.Volume))
	return sb.String()
}
