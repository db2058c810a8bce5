package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/broker"
)

// Command actions understood by a display speaker.
const (
	ActionPlay   = "play"
	ActionStop   = "stop"
	ActionVolume = "volume"
)

// Command is published to the display's audio topic.
type Command struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
	Src    string `json:"src,omitempty"`
	Volume int    `json:"volume"`
}

// Ended is published by the speaker when a clip finishes on its own.
type Ended struct {
	ID string `json:"id"`
}

// RemotePlayer drives a speaker on the display device over MQTT.
type RemotePlayer struct {
	client  broker.Client
	command string
	ended   string
	wait    time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	volume  int
	current string
	onEnd   func()
}

// NewRemotePlayer subscribes to the end-of-clip topic of display.
func NewRemotePlayer(client broker.Client, display string) (*RemotePlayer, error) {
	p := &RemotePlayer{
		client:  client,
		command: broker.AudioTopic(display),
		ended:   broker.AudioEndedTopic(display),
		wait:    broker.DefaultWait,
		volume:  100,
		log:     log.With().Str("component", "audio").Str("display", display).Logger(),
	}
	if err := broker.Wait(client.Subscribe(p.ended, 1, p.handleEnded), p.wait); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", p.ended, err)
	}
	return p, nil
}

func (p *RemotePlayer) handleEnded(_ mqtt.Client, msg mqtt.Message) {
	var e Ended
	if err := json.Unmarshal(msg.Payload(), &e); err != nil {
		p.log.Warn().Err(err).Msg("audio: bad end-of-clip payload")
		return
	}
	p.finish(e.ID)
}

// send publishes c without waiting on a broker that is slow to acknowledge.
// An error the token already carries is returned; a late failure is logged
// and, for a play command, ends that clip.
func (p *RemotePlayer) send(c Command) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	t := p.client.Publish(p.command, 1, false, payload)

	select {
	case <-t.Done():
		if err := t.Error(); err != nil {
			return fmt.Errorf("publishing %s command: %w", c.Action, err)
		}
		return nil
	default:
	}

	go func() {
		if err := broker.Wait(t, p.wait); err != nil {
			p.log.Warn().Err(err).Str("action", c.Action).Msg("audio: command not acknowledged")
			if c.Action == ActionPlay {
				p.finish(c.ID)
			}
		}
	}()
	return nil
}

// finish reports the end of clip id once, if it is still the current one.
func (p *RemotePlayer) finish(id string) {
	p.mu.Lock()
	if id == "" || id != p.current {
		p.mu.Unlock()
		return
	}
	fn := p.onEnd
	p.current, p.onEnd = "", nil
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Play asks the speaker to start src, replacing the current clip.
func (p *RemotePlayer) Play(_ context.Context, src string, onEnd func()) error {
	id := uuid.NewString()

	p.mu.Lock()
	vol := p.volume
	p.current, p.onEnd = id, onEnd
	p.mu.Unlock()

	if err := p.send(Command{ID: id, Action: ActionPlay, Src: src, Volume: vol}); err != nil {
		p.mu.Lock()
		if p.current == id {
			p.current, p.onEnd = "", nil
		}
		p.mu.Unlock()
		return err
	}
	return nil
}

// Stop asks the speaker to stop and rewind.
func (p *RemotePlayer) Stop() error {
	p.mu.Lock()
	vol := p.volume
	p.current, p.onEnd = "", nil
	p.mu.Unlock()
	return p.send(Command{Action: ActionStop, Volume: vol})
}

// SetVolume changes the speaker volume right away.
func (p *RemotePlayer) SetVolume(v int) error {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	return p.send(Command{Action: ActionVolume, Volume: v})
}

// Close stops listening for end-of-clip events.
func (p *RemotePlayer) Close() error {
	p.mu.Lock()
	p.current, p.onEnd = "", nil
	p.mu.Unlock()
	return broker.Wait(p.client.Unsubscribe(p.ended), p.wait)
}
