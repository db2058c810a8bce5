package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/config"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

var (
	flagFormat  string
	flagPrayers string
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.\nThe single-line output suits status bars such as tmux.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.ModeFull, "Display format: "+strings.Join(prayer.Modes, ", ")+", or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	c, err := newCalcContext(cmd)
	if err != nil {
		return err
	}

	// Priority: --prayers flag > config > defaults.
	if cmd.Flags().Changed("prayers") && flagPrayers != "" {
		if _, err := config.ParsePrayers(flagPrayers); err != nil {
			return err
		}
		c.cfg.Prayers = flagPrayers
	}

	today, err := c.day(c.now)
	if err != nil {
		return err
	}
	next, err := c.next(today)
	if err != nil {
		return fmt.Errorf("could not determine next prayer: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(*next, c.now, flagFormat, c.layout))
	return nil
}
