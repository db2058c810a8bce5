package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/display"
	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// day is one calculated date with the prayers the user tracks.
type day struct {
	date     time.Time
	schedule *prayer.Schedule
	prayers  []prayer.Prayer
	hijri    hijri.Date
}

func (c *calcContext) day(date time.Time) (*day, error) {
	sched, err := prayer.Calculate(date, c.prayer.Location(), c.prayer.Settings())
	if err != nil {
		return nil, err
	}
	prayers, err := sched.Prayers(c.cfg.PrayerNames())
	if err != nil {
		return nil, err
	}
	return &day{
		date:     date,
		schedule: sched,
		prayers:  prayers,
		hijri:    hijri.FromTime(date, c.prayer.HijriAdjustment),
	}, nil
}

// next returns the first tracked prayer after now, rolling over to tomorrow.
func (c *calcContext) next(today *day) (*prayer.Prayer, error) {
	if p := prayer.Next(today.prayers, c.now); p != nil {
		return p, nil
	}
	tomorrow, err := c.day(today.date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(tomorrow.prayers) == 0 {
		return nil, fmt.Errorf("no prayers selected")
	}
	return &tomorrow.prayers[0], nil
}

func runToday(cmd *cobra.Command, args []string) error {
	c, err := newCalcContext(cmd)
	if err != nil {
		return err
	}

	today, err := c.day(c.now)
	if err != nil {
		return err
	}
	current := prayer.Current(today.prayers, c.now)
	next, err := c.next(today)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(out, c, today, current, next)
	}
	printTodayRich(out, c, today, current, next)
	return nil
}

// hijriLabel returns the Hijri date with its special day, if any.
func hijriLabel(d hijri.Date) string {
	if name, ok := hijri.SpecialDay(d); ok {
		return d.Format() + " · " + name
	}
	return d.Format()
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, c *calcContext, today *day, current, next *prayer.Prayer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Prayer Times"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", c.locationStr())
	fmt.Fprintf(w, "  %s\n", c.tz)
	fmt.Fprintf(w, "  %s\n", formatGregorianDate(today.date))
	fmt.Fprintf(w, "  %s\n", hijriLabel(today.hijri))
	fmt.Fprintln(w)

	// Find the max prayer name length for alignment.
	maxNameLen := 0
	for _, p := range today.prayers {
		if n := len(p.Name.Label()); n > maxNameLen {
			maxNameLen = n
		}
	}

	for _, p := range today.prayers {
		line := fmt.Sprintf("  %s  %s", padRight(p.Name.Label(), maxNameLen), p.Time.Format(c.layout))

		switch {
		case current != nil && p.Name == current.Name:
			fmt.Fprintln(w, display.Dim(line))
		case next != nil && p.Name == next.Name && sameDay(p.Time, next.Time):
			remaining := prayer.FormatRemaining(prayer.TimeRemaining(p, c.now))
			fmt.Fprintln(w, display.Accent(line+"  <- next in "+remaining))
		default:
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// formatGregorianDate returns a formatted Gregorian date string.
func formatGregorianDate(t time.Time) string {
	return t.Format("Monday, 02 January 2006")
}

// padRight pads a string to the given width with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     todayJSONDate     `json:"date"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *todayJSONNext    `json:"next"`
}

type todayJSONLocation struct {
	Name      string  `json:"name,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Method    string  `json:"method"`
}

type todayJSONDate struct {
	Gregorian  string `json:"gregorian"`
	Hijri      string `json:"hijri"`
	SpecialDay string `json:"specialDay,omitempty"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

func (c *calcContext) jsonLocation() todayJSONLocation {
	return todayJSONLocation{
		Name:      c.cfg.Name,
		Timezone:  c.tz.String(),
		Latitude:  c.prayer.Latitude,
		Longitude: c.prayer.Longitude,
		Method:    string(c.prayer.CalculationMethod),
	}
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, c *calcContext, today *day, current, next *prayer.Prayer) error {
	timings := make(map[string]string, len(today.prayers))
	for _, p := range today.prayers {
		timings[string(p.Name)] = p.Time.Format(c.layout)
	}

	out := todayJSON{
		Location: c.jsonLocation(),
		Date: todayJSONDate{
			Gregorian: today.date.Format(time.DateOnly),
			Hijri:     today.hijri.Format(),
		},
		Timings: timings,
		Current: string(prayer.BeforeSubuh),
	}
	if name, ok := hijri.SpecialDay(today.hijri); ok {
		out.Date.SpecialDay = name
	}
	if current != nil {
		out.Current = string(current.Name)
	}
	if next != nil {
		out.Next = &todayJSONNext{
			Prayer:    string(next.Name),
			Time:      next.Time.Format(c.layout),
			Remaining: prayer.FormatRemaining(prayer.TimeRemaining(*next, c.now)),
		}
	}

	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
