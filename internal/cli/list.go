package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/display"
	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
)

var flagListFrom string

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).\nWith --from the grid starts at an earlier date; days already past are dimmed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
	cmd.Flags().StringVar(&flagListFrom, "from", "", "First date of the grid, YYYY-MM-DD (default: today)")
	return cmd
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid number of days: %q (must be a positive integer)", args[0])
		}
		days = n
	}

	c, err := newCalcContext(cmd)
	if err != nil {
		return err
	}
	from := c.now
	if cmd.Flags().Lookup("from") != nil && flagListFrom != "" {
		if from, err = c.parseDate(flagListFrom); err != nil {
			return err
		}
	}

	daysList, err := c.days(from, days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printListJSON(out, c, daysList)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", display.Bold(fmt.Sprintf("Prayer Times \u2014 %d Days", days)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", c.locationStr())
	fmt.Fprintln(out)

	names := c.cfg.PrayerNames()
	headers := []string{"Date", "Hijri"}
	for _, n := range names {
		headers = append(headers, n.Label())
	}
	tbl := display.NewTable(headers)
	tbl.DimBeforeHighlight(true)

	for i, d := range daysList {
		row := []string{d.date.Format("Mon 02 Jan"), fmt.Sprintf("%d %s", d.hijri.Day, d.hijri.MonthName)}
		for _, p := range d.prayers {
			row = append(row, p.Time.Format(c.layout))
		}
		tbl.AddRow(row)

		if sameDay(d.date, c.now) {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprint(out, tbl.Render())
	fmt.Fprintln(out)
	return nil
}

// days calculates n consecutive days starting at start.
func (c *calcContext) days(start time.Time, n int) ([]*day, error) {
	out := make([]*day, 0, n)
	for i := 0; i < n; i++ {
		d, err := c.day(start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location todayJSONLocation `json:"location"`
	Days     []listJSONDay     `json:"days"`
}

type listJSONDay struct {
	Date       string            `json:"date"`
	Hijri      string            `json:"hijri"`
	SpecialDay string            `json:"specialDay,omitempty"`
	Timings    map[string]string `json:"timings"`
}

func printListJSON(w io.Writer, c *calcContext, daysList []*day) error {
	out := listJSONOutput{Location: c.jsonLocation()}
	for _, d := range daysList {
		timings := make(map[string]string, len(d.prayers))
		for _, p := range d.prayers {
			timings[string(p.Name)] = p.Time.Format(c.layout)
		}
		special, _ := hijri.SpecialDay(d.hijri)
		out.Days = append(out.Days, listJSONDay{
			Date:       d.date.Format(time.DateOnly),
			Hijri:      d.hijri.Format(),
			SpecialDay: special,
			Timings:    timings,
		})
	}
	return writeJSON(w, out)
}
