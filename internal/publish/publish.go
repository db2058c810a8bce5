// Package publish mirrors adzan runtime snapshots to other processes.
package publish

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
)

// Sink receives snapshots.
type Sink interface {
	Publish(ctx context.Context, st adzan.State) error
}

// Forwarder hands snapshots to a sink from its own goroutine, so observers
// never block the monitor tick. Only the newest pending snapshot is kept.
type Forwarder struct {
	sink    Sink
	name    string
	timeout time.Duration
	pending chan adzan.State
	done    chan struct{}
}

// Forward starts a forwarder that runs until ctx is done.
func Forward(ctx context.Context, name string, sink Sink) *Forwarder {
	f := &Forwarder{
		sink:    sink,
		name:    name,
		timeout: 3 * time.Second,
		pending: make(chan adzan.State, 1),
		done:    make(chan struct{}),
	}
	go f.run(ctx)
	return f
}

// Observe queues st, replacing any snapshot not yet sent. It never blocks.
func (f *Forwarder) Observe(st adzan.State) {
	for {
		select {
		case f.pending <- st:
			return
		default:
		}
		select {
		case <-f.pending:
		default:
		}
	}
}

// Done is closed once the forwarder has stopped.
func (f *Forwarder) Done() <-chan struct{} {
	return f.done
}

func (f *Forwarder) run(ctx context.Context) {
	defer close(f.done)
	logger := log.With().Str("component", "publish").Str("sink", f.name).Logger()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-f.pending:
			pctx, cancel := context.WithTimeout(ctx, f.timeout)
			err := f.sink.Publish(pctx, st)
			cancel()
			switch {
			case err != nil && !failing:
				logger.Warn().Err(err).Msg("publish: failed to mirror state")
				failing = true
			case err == nil && failing:
				logger.Info().Msg("publish: mirroring recovered")
				failing = false
			}
		}
	}
}
