package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubPlayer struct {
	mu      sync.Mutex
	plays   []string
	volumes []int
}

func (p *stubPlayer) Play(_ context.Context, src string, _ func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, src)
	return nil
}

func (p *stubPlayer) Stop() error { return nil }

func (p *stubPlayer) SetVolume(v int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumes = append(p.volumes, v)
	return nil
}

func (p *stubPlayer) Close() error { return nil }

type failingStore struct{ store.Store }

func (failingStore) SaveAdzanSettings(context.Context, adzan.Settings) error {
	return errors.New("disk full")
}

type harness struct {
	router *gin.Engine
	mon    *adzan.Monitor
	player *stubPlayer
	store  store.Store
}

func newHarness(t *testing.T, s store.Store) *harness {
	t.Helper()
	tz, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 11, 8, 0, 0, 0, tz))

	cfg := adzan.DefaultPrayerConfig()
	cfg.Timezone = "Asia/Jakarta"

	player := &stubPlayer{}
	mon := adzan.NewMonitor(player,
		adzan.WithClock(clock),
		adzan.WithAssets(adzan.Assets{Adzan: "adzan.mp3", Subuh: "subuh.mp3", Tarhim: "tarhim.mp3"}),
		adzan.WithPrayerConfig(cfg),
		adzan.WithLogger(zerolog.Nop()),
	)
	t.Cleanup(func() { _ = mon.Destroy() })

	r := NewRouter(Deps{Adzan: mon, Store: s, Clock: clock})
	return &harness{router: r, mon: mon, player: player, store: s}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ---------------------------------------------------------------------------
// Health and CORS
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string]any](t, w)
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, false, got["monitoring"])
}

func TestCORS(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
}

// ---------------------------------------------------------------------------
// Prayer times
// ---------------------------------------------------------------------------

func TestSchedule(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/prayer-times?date=2024-03-11", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[ScheduleResponse](t, w)
	assert.Equal(t, "2024-03-11", got.Date)
	assert.Equal(t, "Asia/Jakarta", got.Timezone)
	assert.Equal(t, "1 Ramadhan 1445 H", got.HijriLabel)
	assert.Equal(t, "Awal Ramadhan", got.SpecialDay)
	assert.Regexp(t, `^\d\d:\d\d$`, got.Times.Subuh)
	assert.Less(t, got.Times.Subuh, got.Times.Dzuhur)
	assert.Less(t, got.Times.Maghrib, got.Times.Isya)
}

func TestSchedule_DefaultsToToday(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/prayer-times", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-11", decode[ScheduleResponse](t, w).Date)
}

func TestSchedule_BadDate(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/prayer-times?date=11-03-2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "YYYY-MM-DD")
}

func TestNext(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/prayer-times/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 08:00 is after Terbit and before Dzuhur.
	got := decode[NextResponse](t, w)
	assert.Equal(t, "dzuhur", string(got.Name))
	assert.Equal(t, "Dzuhur", got.Label)
	assert.Equal(t, "terbit", string(got.Current))
	assert.Regexp(t, `^0[34]:\d\d:00$`, got.Countdown)
}

func TestHijri(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/hijri?date=2024-04-10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[HijriResponse](t, w)
	assert.Equal(t, 10, got.Hijri.Month)
	assert.Equal(t, "Syawal", got.Hijri.MonthName)
	assert.Equal(t, "Idul Fitri", got.SpecialDay)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func TestPrayerSettings_UpdateAndPersist(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	h := newHarness(t, s)

	body := map[string]any{
		"latitude":          21.4225,
		"longitude":         39.8262,
		"calculationMethod": "makkah",
		"madhab":            "hanafi",
		"timezone":          "Asia/Riyadh",
		"adjustments":       map[string]int{"isha": 2},
	}
	w := h.do(t, http.MethodPut, "/api/settings/prayer", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := h.mon.PrayerConfig()
	assert.Equal(t, 21.4225, got.Latitude)
	assert.EqualValues(t, "Makkah", got.CalculationMethod)
	assert.EqualValues(t, "Hanafi", got.Madhab)
	assert.EqualValues(t, "middle-of-the-night", got.HighLatitudeRule)
	assert.Equal(t, 2, got.Adjustments["isha"])

	saved, err := s.LoadPrayerConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, saved)

	w = h.do(t, http.MethodGet, "/api/settings/prayer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asia/Riyadh", decode[adzan.PrayerConfig](t, w).Timezone)
}

func TestPrayerSettings_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
		tag   string
	}{
		{
			name:  "missing latitude",
			body:  map[string]any{"longitude": 1.0, "calculationMethod": "MWL"},
			field: "latitude",
			tag:   "required",
		},
		{
			name:  "latitude out of range",
			body:  map[string]any{"latitude": 91.0, "longitude": 1.0, "calculationMethod": "MWL"},
			field: "latitude",
			tag:   "lte",
		},
		{
			name:  "unknown method",
			body:  map[string]any{"latitude": 1.0, "longitude": 1.0, "calculationMethod": "Mars"},
			field: "calculationMethod",
			tag:   "method",
		},
		{
			name:  "unknown timezone",
			body:  map[string]any{"latitude": 1.0, "longitude": 1.0, "calculationMethod": "MWL", "timezone": "Mars/Olympus"},
			field: "timezone",
			tag:   "timezone",
		},
		{
			name:  "unknown madhab",
			body:  map[string]any{"latitude": 1.0, "longitude": 1.0, "calculationMethod": "MWL", "madhab": "x"},
			field: "madhab",
			tag:   "madhab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			before := h.mon.PrayerConfig()

			w := h.do(t, http.MethodPut, "/api/settings/prayer", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var got struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.tag, got.Fields[tt.field], got.Fields)
			assert.Equal(t, before, h.mon.PrayerConfig())
		})
	}
}

func TestAdzanSettings_PartialUpdate(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	h := newHarness(t, s)

	w := h.do(t, http.MethodPut, "/api/settings/adzan", map[string]any{
		"volume":         150,
		"enabledPrayers": map[string]bool{"ashar": false},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[adzan.Settings](t, w)
	assert.Equal(t, 100, got.Volume)
	assert.False(t, got.EnabledPrayers.Ashar)
	assert.True(t, got.EnabledPrayers.Subuh)
	assert.Equal(t, []int{100}, h.player.volumes)

	saved, err := s.LoadAdzanSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, saved)
}

func TestAdzanSettings_PersistFailure(t *testing.T) {
	h := newHarness(t, failingStore{})
	w := h.do(t, http.MethodPut, "/api/settings/adzan", map[string]any{"enabled": false})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, h.mon.Settings().Enabled)
}

func TestAdzanSettings_BadJSON(t *testing.T) {
	h := newHarness(t, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/settings/adzan", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------------------------------------------------------------------
// Adzan control
// ---------------------------------------------------------------------------

func TestPlay(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode int
		wantSrc  string
	}{
		{name: "test playback", body: nil, wantCode: http.StatusOK, wantSrc: "adzan.mp3"},
		{name: "subuh", body: PlayRequest{Prayer: "fajr"}, wantCode: http.StatusOK, wantSrc: "subuh.mp3"},
		{name: "maghrib", body: PlayRequest{Prayer: "maghrib"}, wantCode: http.StatusOK, wantSrc: "adzan.mp3"},
		{name: "no adzan for terbit", body: PlayRequest{Prayer: "terbit"}, wantCode: http.StatusBadRequest},
		{name: "unknown prayer", body: PlayRequest{Prayer: "brunch"}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			w := h.do(t, http.MethodPost, "/api/adzan/play", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantSrc == "" {
				assert.Empty(t, h.player.plays)
				return
			}
			assert.Equal(t, []string{tt.wantSrc}, h.player.plays)
			assert.True(t, decode[adzan.State](t, w).IsPlaying)
		})
	}
}

func TestPlay_Disabled(t *testing.T) {
	h := newHarness(t, nil)
	h.mon.UpdateSettings(adzan.SettingsPatch{Enabled: new(bool)})

	w := h.do(t, http.MethodPost, "/api/adzan/play", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStop(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/adzan/play", nil).Code)

	w := h.do(t, http.MethodPost, "/api/adzan/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[adzan.State](t, w).IsPlaying)
}

func TestVolume(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(t, http.MethodPut, "/api/adzan/volume", map[string]int{"volume": -5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[adzan.State](t, w).Volume)

	w = h.do(t, http.MethodPut, "/api/adzan/volume", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVolume_Persists(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	h := newHarness(t, s)

	w := h.do(t, http.MethodPut, "/api/adzan/volume", map[string]int{"volume": 42})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	saved, err := s.LoadAdzanSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, saved.Volume)
	assert.Equal(t, h.mon.Settings(), saved)
}

func TestVolume_PersistFailure(t *testing.T) {
	h := newHarness(t, failingStore{})
	w := h.do(t, http.MethodPut, "/api/adzan/volume", map[string]int{"volume": 42})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 42, h.mon.Settings().Volume)
}

func TestState(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(t, http.MethodGet, "/api/adzan/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string]any](t, w)
	assert.Equal(t, "00:00:00", got["countdown"])
	assert.Contains(t, got, "nextPrayer")
	assert.Nil(t, got["nextPrayer"])
}
