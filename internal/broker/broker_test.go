package broker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type slowToken struct{ err error }

func (t slowToken) Wait() bool { return false }
func (t slowToken) WaitTimeout(time.Duration) bool { return false }
func (t slowToken) Done() <-chan struct{} { return make(chan struct{}) }
func (t slowToken) Error() error { return t.err }

type doneToken struct{ err error }

func (t doneToken) Wait() bool { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} { return nil }
func (t doneToken) Error() error { return t.err }

func TestWait(t *testing.T) {
	assert.ErrorIs(t, Wait(slowToken{}, time.Millisecond), ErrTimeout)
	assert.NoError(t, Wait(doneToken{}, time.Millisecond))

	boom := errors.New("not authorized")
	assert.ErrorIs(t, Wait(doneToken{err: boom}, time.Millisecond), boom)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "masjid/al-ikhlas/adzan/state", StateTopic("al-ikhlas"))
	assert.Equal(t, "masjid/al-ikhlas/audio", AudioTopic("al-ikhlas"))
	assert.Equal(t, "masjid/al-ikhlas/audio/ended", AudioEndedTopic("al-ikhlas"))
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(Options{})
	assert.Error(t, err)
}
