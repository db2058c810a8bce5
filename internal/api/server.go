package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

// Adzan is the part of the monitor the API drives.
type Adzan interface {
	State() adzan.State
	Settings() adzan.Settings
	PrayerConfig() adzan.PrayerConfig
	UpdateSettings(p adzan.SettingsPatch) adzan.Settings
	UpdatePrayerSettings(c adzan.PrayerConfig) error
	SetVolume(v int) error
	PlayAdzan(name prayer.Name) error
	StopAdzan() error
	Running() bool
}

// Deps are the collaborators of the router. Store may be nil, in which
// case settings changes are not persisted.
type Deps struct {
	Adzan Adzan
	Store store.Store
	Clock clockwork.Clock
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", Resolve(func(*gin.Context) (any, *APIError) {
		return gin.H{"status": "ok", "monitoring": d.Adzan.Running()}, nil
	}))

	MountGroup(r, "/api",
		PrayerModule(d.Adzan, d.Clock),
		SettingsModule(d.Adzan, d.Store),
		AdzanModule(d.Adzan, d.Store),
	)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("api: request")
	}
}

// Server is the HTTP listener of the display.
type Server struct {
	srv *http.Server
}

// NewServer returns a server for h on addr.
func NewServer(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("api: listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
