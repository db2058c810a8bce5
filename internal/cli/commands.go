package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/config"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

// secretKeys are masked by `config show`.
var secretKeys = map[string]bool{
	"mqtt_password":  true,
	"redis_password": true,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE:  runConfigShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  masjid-display config set latitude -6.2088\n  masjid-display config set longitude 106.8456\n  masjid-display config set method Kemenag\n  masjid-display config set timezone Asia/Jakarta\n  masjid-display config set prayers subuh,dzuhur,ashar,maghrib,isya",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		display := val
		switch {
		case val == "":
			display = "(not set)"
		case secretKeys[key]:
			display = "********"
		case key == "method":
			display = formatMethodValue(val)
		}
		fmt.Fprintf(out, "  %-18s %s\n", key, display)
	}
	return nil
}

// runConfigSet sets a config key to the given value.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet prints one config value, empty when unset.
func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	val, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := config.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// formatMethodValue adds the method's full name to its key.
func formatMethodValue(val string) string {
	m, err := prayer.ParseMethod(val)
	if err != nil {
		return val
	}
	return fmt.Sprintf("%s (%s)", m, m.Params().Name)
}

// formatAngles describes the twilight parameters of a method.
func formatAngles(p prayer.MethodParams) string {
	parts := []string{fmt.Sprintf("Subuh %g°", p.FajrAngle)}
	if p.MaghribAngle > 0 {
		parts = append(parts, fmt.Sprintf("Maghrib %g°", p.MaghribAngle))
	}
	if p.IshaInterval > 0 {
		parts = append(parts, fmt.Sprintf("Isya +%d min", p.IshaInterval))
	} else {
		parts = append(parts, fmt.Sprintf("Isya %g°", p.IshaAngle))
	}
	return strings.Join(parts, ", ")
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the table of all supported calculation methods and their twilight angles.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Supported calculation methods:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %-10s %-46s %s\n", "Key", "Name", "Angles")
			fmt.Fprintf(out, "  %-10s %-46s %s\n", "───", "────", "──────")
			for _, m := range prayer.Methods {
				p := m.Params()
				fmt.Fprintf(out, "  %-10s %-46s %s\n", m, p.Name, formatAngles(p))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Use --method <Key> to select a calculation method.")
			fmt.Fprintf(out, "If omitted, %s is used.\n", prayer.MethodKemenag)
			return nil
		},
	}
}
