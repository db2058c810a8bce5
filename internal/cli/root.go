package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/config"
	"github.com/smokyabdulrahman/masjid-display/internal/display"
)

// Global flags shared across all subcommands.
var (
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     string
	FlagMadhab     string
	FlagTimezone   string
	FlagJSON       bool
	FlagTimeFormat string
	FlagDisplay    string
	FlagLogLevel   string
	FlagEnvFile    string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// clock is the time source of every command.
var clock = clockwork.NewRealClock()

// NewRootCmd creates the root command for the masjid-display CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "masjid-display",
		Short:   "Mosque prayer-time display",
		Long:    "Prayer times, Hijri dates and the adzan scheduler of a mosque display, calculated offline.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(FlagLogLevel); err != nil {
				return err
			}
			var files []string
			if FlagEnvFile != "" {
				files = append(files, FlagEnvFile)
			}
			if err := config.LoadEnv(files...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.StringVar(&FlagMethod, "method", "", "Override calculation method (see `methods`)")
	pf.StringVar(&FlagMadhab, "madhab", "", "Override madhab for Ashar: shafi or hanafi")
	pf.StringVar(&FlagTimezone, "timezone", "", "Override IANA timezone, e.g. Asia/Jakarta")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagDisplay, "display", "", "Display ID used for MQTT topics and redis keys")
	pf.StringVar(&FlagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&FlagEnvFile, "env-file", "", "Load environment overrides from this file (default: .env)")

	// Register subcommands.
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newHijriCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAdzanCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("masjid-display %s\n", version)
}

// setupLogging points the global zerolog logger at stderr.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !display.Enabled(),
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
	return nil
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Config{}
	if loadedConfig != nil {
		cfg = *loadedConfig
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "latitude") {
		lat := FlagLatitude
		cfg.Latitude = &lat
	}
	if flagWasSet(flags, root, "longitude") {
		lon := FlagLongitude
		cfg.Longitude = &lon
	}
	overrides := []struct {
		flag, key, value string
	}{
		{"method", "method", FlagMethod},
		{"madhab", "madhab", FlagMadhab},
		{"timezone", "timezone", FlagTimezone},
		{"time-format", "time_format", FlagTimeFormat},
		{"display", "display_id", FlagDisplay},
	}
	for _, o := range overrides {
		if !flagWasSet(flags, root, o.flag) {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return nil, fmt.Errorf("--%s: %w", o.flag, err)
		}
	}

	// Apply defaults for values still unset.
	defaults := config.Defaults()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&cfg.Method, defaults.Method)
	fill(&cfg.Madhab, defaults.Madhab)
	fill(&cfg.HighLatitudeRule, defaults.HighLatitudeRule)
	fill(&cfg.TimeFormat, defaults.TimeFormat)
	fill(&cfg.DisplayID, defaults.DisplayID)
	fill(&cfg.Listen, defaults.Listen)
	fill(&cfg.StoreDriver, defaults.StoreDriver)
	fill(&cfg.AudioSink, defaults.AudioSink)

	return &cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// calcContext is everything the offline commands need to compute a day.
type calcContext struct {
	cfg    *config.Config
	prayer adzan.PrayerConfig
	tz     *time.Location
	layout string
	now    time.Time
}

func newCalcContext(cmd *cobra.Command) (*calcContext, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}
	pc, err := cfg.PrayerConfig()
	if err != nil {
		return nil, err
	}
	tz, err := pc.TimeLocation()
	if err != nil {
		return nil, err
	}
	return &calcContext{
		cfg:    cfg,
		prayer: pc,
		tz:     tz,
		layout: cfg.ClockLayout(),
		now:    clock.Now().In(tz),
	}, nil
}

// locationStr returns the mosque name, or its coordinates.
func (c *calcContext) locationStr() string {
	coords := fmt.Sprintf("%.4f, %.4f", c.prayer.Latitude, c.prayer.Longitude)
	if c.cfg.Name != "" {
		return c.cfg.Name + " (" + coords + ")"
	}
	return coords
}

// parseDate reads a YYYY-MM-DD date in the display's timezone. An empty
// value means today.
func (c *calcContext) parseDate(value string) (time.Time, error) {
	if value == "" {
		return c.now, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, value, c.tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return d, nil
}
