// Package adzan drives the automatic call to prayer from a 1 Hz clock.
package adzan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

var (
	// ErrDisabled is returned by PlayAdzan when the master switch is off.
	ErrDisabled = errors.New("adzan is disabled")
	// ErrPrayerDisabled is returned by PlayAdzan for a prayer that is switched off.
	ErrPrayerDisabled = errors.New("adzan is disabled for this prayer")
	// ErrDestroyed is returned once the monitor has been destroyed.
	ErrDestroyed = errors.New("adzan monitor destroyed")
)

// Player is an audio sink. Play starts src without waiting for it to finish,
// replacing whatever is playing, and calls onEnd from another goroutine when
// the clip ends on its own.
type Player interface {
	Play(ctx context.Context, src string, onEnd func()) error
	Stop() error
	SetVolume(volume int) error
	Close() error
}

const minuteKey = "2006-01-02 15:04"

// Monitor evaluates the schedule every second and plays the adzan at the
// configured prayers. All state is guarded by mu; the player and observers
// are always called without holding it.
type Monitor struct {
	clock  clockwork.Clock
	player Player
	assets Assets
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// pubMu serializes observer calls; published is the sequence number of
	// the last snapshot they received.
	pubMu     sync.Mutex
	published uint64

	mu          sync.Mutex
	seq         uint64
	settings    Settings
	prayerCfg   PrayerConfig
	tz          *time.Location
	state       State
	observers   map[int]func(State)
	nextID      int
	destroyed   bool
	stopLoop    context.CancelFunc
	loopDone    chan struct{}
	playGen     uint64
	lastPlayed  string
	lastTarhim  string
	lastDate    string
	suppressed  string
	scheduleErr error
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithAssets sets the audio clips.
func WithAssets(a Assets) Option {
	return func(m *Monitor) { m.assets = a }
}

// WithSettings sets the initial adzan settings.
func WithSettings(s Settings) Option {
	return func(m *Monitor) { m.settings = s.Normalize() }
}

// WithPrayerConfig sets the initial location and calculation settings.
// An unknown timezone falls back to local time.
func WithPrayerConfig(c PrayerConfig) Option {
	return func(m *Monitor) { m.prayerCfg = c }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// NewMonitor returns an idle monitor that plays through player.
func NewMonitor(player Player, opts ...Option) *Monitor {
	m := &Monitor{
		clock:     clockwork.NewRealClock(),
		player:    player,
		assets:    DefaultAssets(),
		log:       log.With().Str("component", "adzan").Logger(),
		settings:  DefaultSettings(),
		prayerCfg: DefaultPrayerConfig(),
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}

	tz, err := m.prayerCfg.TimeLocation()
	if err != nil {
		m.log.Warn().Err(err).Msg("adzan: using local time")
		tz = time.Local
	}
	m.tz = tz
	m.state = idleState(m.settings.Volume)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// StartMonitoring begins the 1-second tick. It does nothing if the monitor is
// already running or destroyed.
func (m *Monitor) StartMonitoring() {
	m.mu.Lock()
	if m.destroyed || m.stopLoop != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	done := make(chan struct{})
	ticker := m.clock.NewTicker(time.Second)
	m.stopLoop, m.loopDone = cancel, done
	m.mu.Unlock()

	m.log.Info().Msg("adzan: monitoring started")
	go m.run(ctx, ticker, done)
}

func (m *Monitor) run(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	m.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.tick()
		}
	}
}

// StopMonitoring stops the tick, cancels playback and resets the runtime
// state. It must not be called from an observer.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	cancel, done := m.stopLoop, m.loopDone
	m.stopLoop, m.loopDone = nil, nil
	if cancel == nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	cancel()
	<-done

	m.mu.Lock()
	m.playGen++
	m.state = idleState(m.settings.Volume)
	m.lastPlayed, m.lastTarhim, m.suppressed = "", "", ""
	m.mu.Unlock()

	if err := m.player.Stop(); err != nil {
		m.log.Warn().Err(err).Msg("adzan: failed to stop playback")
	}
	m.log.Info().Msg("adzan: monitoring stopped")
	m.notify()
}

// Running reports whether the tick loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLoop != nil
}

// Destroy stops monitoring and releases the player. Every later call is a
// no-op and PlayAdzan returns ErrDestroyed.
func (m *Monitor) Destroy() error {
	m.StopMonitoring()

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	m.destroyed = true
	m.playGen++
	clear(m.observers)
	m.mu.Unlock()

	m.cancel()
	if err := m.player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	return nil
}

// Subscribe registers fn to receive published snapshots. Calls to fn never
// overlap and arrive in order; a snapshot overtaken by a newer one before
// delivery is dropped. fn must not block or call back into the monitor.
func (m *Monitor) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return func() {}
	}
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// State returns the latest snapshot.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Settings returns the current adzan settings.
func (m *Monitor) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// PrayerConfig returns the current location and calculation settings.
func (m *Monitor) PrayerConfig() PrayerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prayerCfg
}

// UpdateSettings merges p into the settings. The change takes effect on the
// next tick; nothing is triggered again within the current minute.
func (m *Monitor) UpdateSettings(p SettingsPatch) Settings {
	m.mu.Lock()
	if m.destroyed {
		s := m.settings
		m.mu.Unlock()
		return s
	}
	m.settings = m.settings.Merge(p)
	m.state.Volume = m.settings.Volume
	m.suppressed = m.clock.Now().In(m.tz).Format(minuteKey)
	s := m.settings
	m.mu.Unlock()

	if p.Volume != nil {
		if err := m.player.SetVolume(s.Volume); err != nil {
			m.log.Warn().Err(err).Msg("adzan: failed to set volume")
		}
	}
	return s
}

// UpdatePrayerSettings replaces the location and calculation settings with
// the same one-minute trigger suppression as UpdateSettings.
func (m *Monitor) UpdatePrayerSettings(c PrayerConfig) error {
	tz, err := c.TimeLocation()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return nil
	}
	m.prayerCfg = c
	m.tz = tz
	m.suppressed = m.clock.Now().In(tz).Format(minuteKey)
	return nil
}

// SetVolume clamps v to [0,100] and applies it to the player immediately.
func (m *Monitor) SetVolume(v int) error {
	v = ClampVolume(v)

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	m.settings.Volume = v
	m.state.Volume = v
	m.mu.Unlock()

	if err := m.player.SetVolume(v); err != nil {
		return fmt.Errorf("setting volume: %w", err)
	}
	m.notify()
	return nil
}

// PlayAdzan plays the adzan for name now. An empty name plays the default
// clip in test mode, which ignores the per-prayer switches. The master
// switch is always honoured.
func (m *Monitor) PlayAdzan(name prayer.Name) error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return ErrDestroyed
	}
	if !m.settings.Enabled {
		m.mu.Unlock()
		return ErrDisabled
	}

	label, src := TestPrayer, m.assets.Adzan
	if name != "" {
		if !slices.Contains(prayer.AdzanNames, name) {
			m.mu.Unlock()
			return fmt.Errorf("no adzan for %q", name)
		}
		if !m.settings.EnabledPrayers.Enabled(name) {
			m.mu.Unlock()
			return fmt.Errorf("%s: %w", name, ErrPrayerDisabled)
		}
		label, src = string(name), m.assets.forPrayer(name, m.settings.UseSubuhAdzan)
	}
	pb := m.beginLocked(label, AudioAdzan, src)
	m.mu.Unlock()

	err := m.start(pb)
	m.notify()
	return err
}

// StopAdzan stops any clip in progress. It is safe to call when idle.
func (m *Monitor) StopAdzan() error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil
	}
	wasPlaying := m.state.IsPlaying
	m.playGen++
	m.clearPlayingLocked()
	m.mu.Unlock()

	if err := m.player.Stop(); err != nil {
		return fmt.Errorf("stopping playback: %w", err)
	}
	if wasPlaying {
		m.notify()
	}
	return nil
}

// playback is a clip the tick decided to start.
type playback struct {
	gen    uint64
	label  string
	kind   AudioType
	src    string
	volume int
}

// beginLocked marks a new clip as playing and returns its handle.
func (m *Monitor) beginLocked(label string, kind AudioType, src string) playback {
	m.playGen++
	m.state.IsPlaying = true
	m.state.CurrentPrayer = ptr(label)
	m.state.CurrentAudioType = ptr(kind)
	return playback{gen: m.playGen, label: label, kind: kind, src: src, volume: m.settings.Volume}
}

func (m *Monitor) clearPlayingLocked() {
	m.state.IsPlaying = false
	m.state.CurrentPrayer = nil
	m.state.CurrentAudioType = nil
}

// start hands pb to the player. A failure is logged and the playing flag
// cleared; the dedup key recorded by the tick stays in place.
func (m *Monitor) start(pb playback) error {
	if err := m.player.SetVolume(pb.volume); err != nil {
		m.log.Warn().Err(err).Msg("adzan: failed to set volume")
	}

	err := m.player.Play(m.ctx, pb.src, func() { m.ended(pb.gen) })
	if err != nil {
		m.log.Error().Err(err).
			Str("prayer", pb.label).
			Str("type", string(pb.kind)).
			Str("src", pb.src).
			Msg("adzan: playback failed")

		m.mu.Lock()
		if m.playGen == pb.gen {
			m.clearPlayingLocked()
		}
		m.mu.Unlock()
		return fmt.Errorf("playing %s: %w", pb.src, err)
	}

	m.log.Info().
		Str("prayer", pb.label).
		Str("type", string(pb.kind)).
		Int("volume", pb.volume).
		Msg("adzan: playback started")
	return nil
}

// ended handles the natural end of the clip started as gen.
func (m *Monitor) ended(gen uint64) {
	m.mu.Lock()
	if m.destroyed || m.playGen != gen {
		m.mu.Unlock()
		return
	}
	m.clearPlayingLocked()
	m.mu.Unlock()

	m.log.Debug().Msg("adzan: playback ended")
	m.notify()
}

// notify publishes the current snapshot to every observer. It is called
// from the tick, the control methods and the player's end-of-clip callback.
func (m *Monitor) notify() {
	m.mu.Lock()
	m.seq++
	seq, st := m.seq, m.state
	fns := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if seq < m.published {
		return
	}
	m.published = seq
	for _, fn := range fns {
		fn(st)
	}
}

// tick runs one evaluation and publishes the result.
func (m *Monitor) tick() {
	if pb, ok := m.evaluate(m.clock.Now()); ok {
		_ = m.start(pb)
	}
	m.notify()
}

// evaluate refreshes the snapshot for now and decides whether a clip should
// start. It reports false when nothing is due.
func (m *Monitor) evaluate(now time.Time) (playback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return playback{}, false
	}

	now = now.In(m.tz).Truncate(time.Second)
	if date := now.Format(time.DateOnly); date != m.lastDate {
		m.lastDate = date
		m.lastPlayed = ""
	}

	loc, ps := m.prayerCfg.Location(), m.prayerCfg.Settings()
	sched, err := prayer.Calculate(now, loc, ps)
	if err != nil {
		if m.scheduleErr == nil {
			m.log.Warn().Err(err).Msg("adzan: cannot compute schedule")
		}
		m.scheduleErr = err
		m.resetScheduleLocked()
		return playback{}, false
	}
	m.scheduleErr = nil

	m.refreshLocked(now, sched, loc, ps)
	return m.triggerLocked(now, sched, loc, ps)
}

// resetScheduleLocked puts the schedule fields in their loading state.
func (m *Monitor) resetScheduleLocked() {
	m.state.PrayerTimes = nil
	m.state.NextPrayer = nil
	m.state.Countdown = zeroCountdown
	m.state.TarhimCountdown = nil
	m.state.IsCautionActive = false
	m.state.CautionFor = nil
	m.state.CautionCountdown = nil
	m.state.CurrentPeriod = ""
	m.state.Hijri = ""
}

func (m *Monitor) refreshLocked(now time.Time, sched *prayer.Schedule, loc prayer.Location, ps prayer.Settings) {
	times := sched.Times()
	m.state.PrayerTimes = &times
	m.state.Hijri = hijri.FromTime(now, m.prayerCfg.HijriAdjustment).Format()

	m.state.NextPrayer = nil
	m.state.Countdown = zeroCountdown
	if next, err := prayer.NextPrayer(now, loc, ps); err == nil {
		m.state.NextPrayer = &NextPrayer{
			Name:  next.Name,
			Label: next.Name.Label(),
			Time:  next.Time.Format(prayer.ClockLayout),
		}
		m.state.Countdown = prayer.FormatCountdown(next.Time.Sub(now))
	}
	if cur, err := prayer.CurrentPrayer(now, loc, ps); err == nil {
		m.state.CurrentPeriod = cur
	}

	m.state.TarhimCountdown = nil
	if m.settings.TarhimEnabled {
		at := m.tarhimAt(sched)
		if !at.After(now) {
			if tomorrow, ok := m.tomorrowTarhim(now, loc, ps); ok {
				at = tomorrow
			}
		}
		m.state.TarhimCountdown = ptr(prayer.FormatCountdown(at.Sub(now)))
	}

	m.state.IsCautionActive = false
	m.state.CautionFor = nil
	m.state.CautionCountdown = nil
	if name, left, ok := m.cautionLocked(now, sched); ok {
		m.state.IsCautionActive = true
		m.state.CautionFor = ptr(name)
		m.state.CautionCountdown = ptr(prayer.FormatCountdown(left))
	}
}

func (m *Monitor) tarhimAt(sched *prayer.Schedule) time.Time {
	return sched.Imsak.Add(-time.Duration(m.settings.TarhimMinutesBeforeImsak) * time.Minute)
}

// tomorrowTarhim is the tarhim that belongs to the next day's imsak. A long
// lead puts it on the evening of now's date.
func (m *Monitor) tomorrowTarhim(now time.Time, loc prayer.Location, ps prayer.Settings) (time.Time, bool) {
	tomorrow, err := prayer.Calculate(now.AddDate(0, 0, 1), loc, ps)
	if err != nil {
		return time.Time{}, false
	}
	return m.tarhimAt(tomorrow), true
}

// cautionLocked finds the nearest enabled target whose caution window
// contains now. The window excludes the target instant itself.
func (m *Monitor) cautionLocked(now time.Time, sched *prayer.Schedule) (prayer.Name, time.Duration, bool) {
	if !m.settings.Enabled || !m.settings.CautionEnabled {
		return "", 0, false
	}

	var (
		best   prayer.Name
		bestIn time.Duration
		found  bool
	)
	consider := func(n prayer.Name, at time.Time, window time.Duration) {
		left := at.Sub(now)
		if left <= 0 || left > window {
			return
		}
		if !found || left < bestIn {
			best, bestIn, found = n, left, true
		}
	}

	if m.settings.EnabledPrayers.Imsak {
		consider(prayer.Imsak, sched.Imsak, time.Duration(m.settings.CautionSecondsBeforeImsak)*time.Second)
	}
	window := time.Duration(m.settings.CautionSecondsBeforeAdzan) * time.Second
	for _, n := range prayer.AdzanNames {
		if !m.settings.EnabledPrayers.Enabled(n) {
			continue
		}
		at, _ := sched.Get(n)
		consider(n, at, window)
	}
	return best, bestIn, found
}

// triggerLocked applies the minute-resolution trigger rules: an enabled
// prayer whose clock time equals the current minute plays once per key, and
// the tarhim plays once per day unless an adzan starts in the same tick.
// The tarhim matches on the full minute, so one computed from tomorrow's
// imsak can fire tonight.
func (m *Monitor) triggerLocked(now time.Time, sched *prayer.Schedule, loc prayer.Location, ps prayer.Settings) (playback, bool) {
	minute := now.Format(minuteKey)
	if m.suppressed != "" {
		if m.suppressed == minute {
			return playback{}, false
		}
		m.suppressed = ""
	}
	if !m.settings.Enabled {
		return playback{}, false
	}

	hhmm := now.Format(prayer.ClockLayout)
	for _, n := range prayer.AdzanNames {
		at, _ := sched.Get(n)
		if at.Format(prayer.ClockLayout) != hhmm || !m.settings.EnabledPrayers.Enabled(n) {
			continue
		}
		key := fmt.Sprintf("%s-%s", n, hhmm)
		if key == m.lastPlayed {
			return playback{}, false
		}
		m.lastPlayed = key
		src := m.assets.forPrayer(n, m.settings.UseSubuhAdzan)
		return m.beginLocked(string(n), AudioAdzan, src), true
	}

	if m.settings.TarhimEnabled {
		date := now.Format(time.DateOnly)
		due := m.tarhimAt(sched).Format(minuteKey) == minute
		if !due {
			if at, ok := m.tomorrowTarhim(now, loc, ps); ok {
				due = at.Format(minuteKey) == minute
			}
		}
		if due && m.lastTarhim != date {
			m.lastTarhim = date
			return m.beginLocked(string(AudioTarhim), AudioTarhim, m.assets.Tarhim), true
		}
	}
	return playback{}, false
}
