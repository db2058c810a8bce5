package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/display"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
	"github.com/smokyabdulrahman/masjid-display/internal/publish"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

var flagStateTimeout time.Duration

func newAdzanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adzan",
		Short: "Test the adzan audio or inspect a running display",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "test [prayer]",
		Short: "Play an adzan through the configured audio sink",
		Long:  "Play the default adzan (or the one for a prayer, e.g. subuh) and wait until it ends.\nThe stored adzan settings apply, so a disabled master switch refuses to play.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAdzanTest,
	})

	state := &cobra.Command{
		Use:   "state",
		Short: "Show the state mirrored to redis by `serve`",
		Args:  cobra.NoArgs,
		RunE:  runAdzanState,
	}
	state.Flags().DurationVar(&flagStateTimeout, "timeout", 3*time.Second, "Redis timeout")
	cmd.AddCommand(state)

	return cmd
}

func runAdzanTest(cmd *cobra.Command, args []string) error {
	var name prayer.Name
	if len(args) == 1 {
		n, err := prayer.ParseName(args[0])
		if err != nil {
			return err
		}
		name = n
	}

	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	st, err := store.Open(ctx, store.Options{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN})
	if err != nil {
		return err
	}
	defer st.Close()

	mon, mq, err := newMonitor(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer func() {
		_ = mon.Destroy()
		if mq != nil {
			mq.Disconnect(250)
		}
	}()

	done := make(chan struct{}, 1)
	unsubscribe := mon.Subscribe(func(s adzan.State) {
		if !s.IsPlaying {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := mon.PlayAdzan(name); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	label := "default adzan"
	if name != "" {
		label = "adzan " + name.Label()
	}
	fmt.Fprintf(out, "Playing %s at volume %d (Ctrl-C to stop)\n", label, mon.Settings().Volume)

	select {
	case <-done:
		fmt.Fprintln(out, "Done.")
	case <-ctx.Done():
		fmt.Fprintln(out, "Stopped.")
		return mon.StopAdzan()
	}
	return nil
}

func runAdzanState(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.RedisAddr == "" {
		return fmt.Errorf("redis_addr is not set; `serve` only mirrors its state to redis")
	}

	rdb := publish.NewRedisClient(publish.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagStateTimeout)
	defer cancel()

	s, err := publish.LoadState(ctx, rdb, cfg.DisplayID)
	if errors.Is(err, publish.ErrNoState) {
		return fmt.Errorf("no state for display %q; is `serve` running?", cfg.DisplayID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(out, s)
	}
	fmt.Fprintf(out, "  %s\n\n", display.Boldf("Display %s", cfg.DisplayID))
	fmt.Fprint(out, display.RenderState(s))
	return nil
}
