package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/display"
	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
)

var (
	flagHijriDate   string
	flagHijriAdjust int
)

func newHijriCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hijri",
		Short: "Show the Hijri date",
		Long:  "Convert today (or --date) to the tabular Hijri calendar, shifted by the configured hijri_adjustment.",
		Args:  cobra.NoArgs,
		RunE:  runHijri,
	}
	cmd.Flags().StringVar(&flagHijriDate, "date", "", "Gregorian date, YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&flagHijriAdjust, "adjust", 0, "Shift by whole days (overrides hijri_adjustment)")
	return cmd
}

type hijriJSON struct {
	Gregorian  string     `json:"gregorian"`
	Hijri      hijri.Date `json:"hijri"`
	Label      string     `json:"label"`
	SpecialDay string     `json:"specialDay,omitempty"`
	Ramadan    bool       `json:"ramadan"`
}

func runHijri(cmd *cobra.Command, args []string) error {
	c, err := newCalcContext(cmd)
	if err != nil {
		return err
	}
	date, err := c.parseDate(flagHijriDate)
	if err != nil {
		return err
	}
	adjust := c.prayer.HijriAdjustment
	if cmd.Flags().Changed("adjust") {
		adjust = flagHijriAdjust
	}

	d := hijri.FromTime(date, adjust)
	special, _ := hijri.SpecialDay(d)

	out := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(out, hijriJSON{
			Gregorian:  date.Format(time.DateOnly),
			Hijri:      d,
			Label:      d.Format(),
			SpecialDay: special,
			Ramadan:    d.Month == hijri.Ramadhan,
		})
	}

	fmt.Fprintf(out, "%s, %s\n", d.DayName, display.Bold(d.Format()))
	fmt.Fprintf(out, "%s %d %s %d\n", d.DayNameAr, d.Day, d.MonthNameAr, d.Year)
	if special != "" {
		fmt.Fprintln(out, display.Accent(special))
	}
	return nil
}
