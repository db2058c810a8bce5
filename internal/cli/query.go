package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/display"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query a specific prayer time for today, or across multiple days with --days.\n\nValid names: imsak, subuh, terbit, dhuha, dzuhur, ashar, maghrib, isya, tengahMalam, sepertiga\n(fajr, sunrise, dhuhr, asr and isha are accepted too)",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

// parseDays reads the --days value.
func parseDays(value string) (int, error) {
	switch value {
	case "":
		return 1, nil
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid --days value %q: must be a positive integer, 'week', or 'month'", value)
	}
	return n, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, err := prayer.ParseName(args[0])
	if err != nil || name == prayer.BeforeSubuh {
		return fmt.Errorf("unknown prayer %q", args[0])
	}

	days, err := parseDays(flagQueryDays)
	if err != nil {
		return err
	}

	c, err := newCalcContext(cmd)
	if err != nil {
		return err
	}
	daysList, err := c.days(c.now, days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if days == 1 {
		return printQuerySingle(out, c, name, daysList[0])
	}
	return printQueryMulti(out, c, name, daysList)
}

func queryTime(c *calcContext, d *day, name prayer.Name) string {
	t, ok := d.schedule.Get(name)
	if !ok {
		return ""
	}
	return t.Format(c.layout)
}

type queryJSONSingle struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Hijri  string `json:"hijri"`
}

func printQuerySingle(w io.Writer, c *calcContext, name prayer.Name, d *day) error {
	timeStr := queryTime(c, d, name)
	if timeStr == "" {
		return fmt.Errorf("no timing found for %s", name.Label())
	}

	if FlagJSON {
		return writeJSON(w, queryJSONSingle{
			Prayer: string(name),
			Time:   timeStr,
			Date:   d.date.Format(time.DateOnly),
			Hijri:  d.hijri.Format(),
		})
	}

	fmt.Fprintf(w, "%s %s\n", name.Label(), timeStr)
	return nil
}

type queryJSONMulti struct {
	Location todayJSONLocation `json:"location"`
	Prayer   string            `json:"prayer"`
	Days     []queryJSONDay    `json:"days"`
}

type queryJSONDay struct {
	Date  string `json:"date"`
	Hijri string `json:"hijri"`
	Time  string `json:"time"`
}

func printQueryMulti(w io.Writer, c *calcContext, name prayer.Name, daysList []*day) error {
	if FlagJSON {
		out := queryJSONMulti{
			Location: c.jsonLocation(),
			Prayer:   string(name),
		}
		for _, d := range daysList {
			out.Days = append(out.Days, queryJSONDay{
				Date:  d.date.Format(time.DateOnly),
				Hijri: d.hijri.Format(),
				Time:  queryTime(c, d, name),
			})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("%s Times \u2014 %d Days", name.Label(), len(daysList))))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", c.locationStr())
	fmt.Fprintln(w)

	tbl := display.NewTable([]string{"Date", name.Label()})
	for i, d := range daysList {
		tbl.AddRow([]string{d.date.Format("Mon 02 Jan"), queryTime(c, d, name)})
		if sameDay(d.date, c.now) {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}
