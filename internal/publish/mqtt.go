package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/broker"
)

// MQTT publishes retained snapshots to the display's state topic whenever
// the snapshot changes.
type MQTT struct {
	client broker.Client
	topic  string

	mu   sync.Mutex
	last []byte
}

// NewMQTT returns a publisher for display.
func NewMQTT(client broker.Client, display string) *MQTT {
	return &MQTT{client: client, topic: broker.StateTopic(display)}
}

// Publish sends st unless it equals the last snapshot sent.
func (p *MQTT) Publish(ctx context.Context, st adzan.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if bytes.Equal(payload, p.last) {
		return nil
	}

	wait := broker.DefaultWait
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if err := broker.Wait(p.client.Publish(p.topic, 1, true, payload), wait); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topic, err)
	}
	p.last = payload
	return nil
}
