package prayer

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Built-in status line modes.
const (
	ModeTimeRemaining      = "time-remaining"
	ModeNextPrayerTime     = "next-prayer-time"
	ModeNameAndTime        = "name-and-time"
	ModeNameAndRemaining   = "name-and-remaining"
	ModeShortNameAndTime   = "short-name-and-time"
	ModeShortNameAndRemain = "short-name-and-remaining"
	ModeFull               = "full"
	ModeCountdown          = "countdown"
)

// Modes lists the built-in modes in the order help text shows them.
var Modes = []string{
	ModeTimeRemaining,
	ModeNextPrayerTime,
	ModeNameAndTime,
	ModeNameAndRemaining,
	ModeShortNameAndTime,
	ModeShortNameAndRemain,
	ModeFull,
	ModeCountdown,
}

// Line holds everything a status line can show about one upcoming prayer.
// Custom templates are executed against it.
type Line struct {
	Name      string // "Ashar"
	ShortName string // "A"
	Time      string // "15:02" or "3:02 PM"
	Remaining string // "2h 15m"
	Countdown string // "02:15:00"
	Hours     int
	Minutes   int
}

// NewLine describes p as seen at now, with its time rendered in layout.
func NewLine(p Prayer, now time.Time, layout string) Line {
	d := TimeRemaining(p, now)
	return Line{
		Name:      p.Name.Label(),
		ShortName: ShortNames[p.Name],
		Time:      p.Time.Format(layout),
		Remaining: FormatRemaining(d),
		Countdown: FormatCountdown(d),
		Hours:     int(d.Hours()),
		Minutes:   int(d.Minutes()) % 60,
	}
}

var renderers = map[string]func(Line) string{
	ModeTimeRemaining:      func(l Line) string { return l.Remaining },
	ModeNextPrayerTime:     func(l Line) string { return l.Time },
	ModeNameAndTime:        func(l Line) string { return l.Name + " " + l.Time },
	ModeNameAndRemaining:   func(l Line) string { return l.Name + " " + l.Remaining },
	ModeShortNameAndTime:   func(l Line) string { return l.ShortName + " " + l.Time },
	ModeShortNameAndRemain: func(l Line) string { return l.ShortName + " " + l.Remaining },
	ModeFull:               func(l Line) string { return fmt.Sprintf("%s %s (%s)", l.Name, l.Time, l.Remaining) },
	ModeCountdown:          func(l Line) string { return l.Name + " -" + l.Countdown },
}

// FormatOutput renders p for a status bar. A mode containing "{{" is a Go
// template over Line, e.g. "{{.Name}} in {{.Remaining}}". Unknown modes fall
// back to name-and-time.
func FormatOutput(p Prayer, now time.Time, mode string, layout string) string {
	l := NewLine(p, now, layout)
	if strings.Contains(mode, "{{") {
		return l.execute(mode)
	}
	render, ok := renderers[mode]
	if !ok {
		render = renderers[ModeNameAndTime]
	}
	return render(l)
}

func (l Line) execute(text string) string {
	tmpl, err := template.New("line").Option("missingkey=error").Parse(text)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, l); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return sb.String()
}
