// Package broker connects a display to its MQTT broker and names the topics
// it uses.
package broker

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timed out waiting for broker")

// DefaultWait bounds every blocking broker call.
const DefaultWait = 5 * time.Second

// Client is the part of mqtt.Client the display uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

// Options configures the connection.
type Options struct {
	URL      string
	ClientID string
	Username string
	Password string
}

// Connect dials the broker. An empty client ID gets a random one.
func Connect(o Options) (mqtt.Client, error) {
	if o.URL == "" {
		return nil, errors.New("mqtt: broker URL is empty")
	}
	id := o.ClientID
	if id == "" {
		id = "masjid-display-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.URL)
	opts.SetClientID(id)
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", o.URL).Str("client", id).Msg("mqtt: connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", o.URL).Msg("mqtt: connection lost")
	}

	client := mqtt.NewClient(opts)
	if err := Wait(client.Connect(), DefaultWait); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", o.URL, err)
	}
	return client, nil
}

// Wait blocks on t for at most d and returns its error.
func Wait(t mqtt.Token, d time.Duration) error {
	if !t.WaitTimeout(d) {
		return ErrTimeout
	}
	return t.Error()
}

// StateTopic carries the retained runtime snapshot of a display.
func StateTopic(display string) string {
	return fmt.Sprintf("masjid/%s/adzan/state", display)
}

// AudioTopic carries playback commands to a display's speaker.
func AudioTopic(display string) string {
	return fmt.Sprintf("masjid/%s/audio", display)
}

// AudioEndedTopic carries end-of-clip events back from the speaker.
func AudioEndedTopic(display string) string {
	return AudioTopic(display) + "/ended"
}
