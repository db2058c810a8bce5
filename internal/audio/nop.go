package audio

import (
	"context"

	"github.com/rs/zerolog/log"
)

// NopPlayer only logs what it would play. It backs headless installs that
// have no speaker attached. Every clip ends as soon as it starts.
type NopPlayer struct{}

func (NopPlayer) Play(_ context.Context, src string, onEnd func()) error {
	log.Info().Str("src", src).Msg("audio: no speaker configured, skipping clip")
	if onEnd != nil {
		go onEnd()
	}
	return nil
}

func (NopPlayer) Stop() error { return nil }
func (NopPlayer) SetVolume(int) error { return nil }
func (NopPlayer) Close() error { return nil }
