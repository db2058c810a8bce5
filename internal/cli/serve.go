package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/api"
	"github.com/smokyabdulrahman/masjid-display/internal/audio"
	"github.com/smokyabdulrahman/masjid-display/internal/broker"
	"github.com/smokyabdulrahman/masjid-display/internal/config"
	"github.com/smokyabdulrahman/masjid-display/internal/publish"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

var flagListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the adzan scheduler and HTTP API",
		Long: "Start the 1 Hz adzan monitor, mirror its state to MQTT and redis when configured,\n" +
			"and serve the settings and control API until interrupted.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.Listen = flagListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
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
		if err := mon.Destroy(); err != nil {
			log.Warn().Err(err).Msg("serve: destroying monitor")
		}
		if mq != nil {
			mq.Disconnect(250)
		}
	}()

	if mq != nil {
		fwd := publish.Forward(ctx, "mqtt", publish.NewMQTT(mq, cfg.DisplayID))
		defer mon.Subscribe(fwd.Observe)()
	}
	if cfg.RedisAddr != "" {
		rdb := publish.NewRedisClient(publish.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		fwd := publish.Forward(ctx, "redis", publish.NewRedisMirror(rdb, cfg.DisplayID, 0))
		defer mon.Subscribe(fwd.Observe)()
	}

	mon.StartMonitoring()
	log.Info().
		Str("display", cfg.DisplayID).
		Str("store", cfg.StoreDriver).
		Str("audio", cfg.AudioSink).
		Msg("serve: adzan monitor started")

	router := api.NewRouter(api.Deps{Adzan: mon, Store: st, Clock: clock})
	return api.NewServer(cfg.Listen, router).Run(ctx)
}

// newMonitor builds the monitor from persisted settings. The returned MQTT
// client is nil unless mqtt_url is set.
func newMonitor(ctx context.Context, cfg *config.Config, st store.Store) (*adzan.Monitor, mqtt.Client, error) {
	def, err := cfg.PrayerConfig()
	if err != nil {
		return nil, nil, err
	}
	pc, err := store.PrayerConfigOr(ctx, st, def)
	if err != nil {
		return nil, nil, err
	}
	settings, err := store.AdzanSettingsOrDefault(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	var mq mqtt.Client
	if cfg.MQTTURL != "" {
		mq, err = broker.Connect(broker.Options{
			URL:      cfg.MQTTURL,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	player, err := newPlayer(cfg, mq)
	if err != nil {
		if mq != nil {
			mq.Disconnect(250)
		}
		return nil, nil, err
	}

	mon := adzan.NewMonitor(player,
		adzan.WithClock(clock),
		adzan.WithSettings(settings),
		adzan.WithPrayerConfig(pc),
		adzan.WithAssets(cfg.Assets()),
	)
	return mon, mq, nil
}

// newPlayer returns the audio sink named by audio_sink.
func newPlayer(cfg *config.Config, mq broker.Client) (adzan.Player, error) {
	switch cfg.AudioSink {
	case "", config.SinkExec:
		return audio.NewExecPlayer(cfg.AudioCommandArgs()), nil
	case config.SinkRemote:
		if mq == nil {
			return nil, fmt.Errorf("audio_sink %q needs mqtt_url", config.SinkRemote)
		}
		return audio.NewRemotePlayer(mq, cfg.DisplayID)
	case config.SinkNone:
		return audio.NopPlayer{}, nil
	}
	return nil, fmt.Errorf("unknown audio sink %q", cfg.AudioSink)
}
