package api

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

type adzanController struct {
	adzan Adzan
	store store.Store
}

// AdzanModule mounts the runtime state and playback endpoints. A volume
// change is saved to s when it is not nil.
func AdzanModule(a Adzan, s store.Store) Module {
	ctl := &adzanController{adzan: a, store: s}
	return ModuleFunc(func(c *Controller) {
		c.GET("/adzan/state", ctl.state)
		c.POST("/adzan/play", ctl.play)
		c.POST("/adzan/stop", ctl.stop)
		c.PUT("/adzan/volume", ctl.volume)
	})
}

// PlayRequest names the prayer to play. An empty prayer is a test playback.
type PlayRequest struct {
	Prayer string `json:"prayer"`
}

// VolumeRequest sets the playback volume. Values outside 0-100 are clamped.
type VolumeRequest struct {
	Volume *int `json:"volume" validate:"required"`
}

func playError(err error) *APIError {
	switch {
	case errors.Is(err, adzan.ErrDisabled), errors.Is(err, adzan.ErrPrayerDisabled):
		return errorf(http.StatusConflict, err.Error())
	case errors.Is(err, adzan.ErrDestroyed):
		return errorf(http.StatusServiceUnavailable, err.Error())
	}
	return errorf(http.StatusInternalServerError, err.Error())
}

// GET /api/adzan/state
func (a *adzanController) state(*gin.Context) (any, *APIError) {
	return a.adzan.State(), nil
}

// POST /api/adzan/play
func (a *adzanController) play(c *gin.Context) (any, *APIError) {
	var req PlayRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errorf(http.StatusBadRequest, err.Error())
		}
	}

	var name prayer.Name
	if req.Prayer != "" {
		n, err := prayer.ParseName(req.Prayer)
		if err != nil {
			return nil, errorf(http.StatusBadRequest, err.Error())
		}
		if !slices.Contains(prayer.AdzanNames, n) {
			return nil, errorf(http.StatusBadRequest, "no adzan for "+string(n))
		}
		name = n
	}

	if err := a.adzan.PlayAdzan(name); err != nil {
		return nil, playError(err)
	}
	return a.adzan.State(), nil
}

// POST /api/adzan/stop
func (a *adzanController) stop(*gin.Context) (any, *APIError) {
	if err := a.adzan.StopAdzan(); err != nil {
		return nil, errorf(http.StatusInternalServerError, err.Error())
	}
	return a.adzan.State(), nil
}

// PUT /api/adzan/volume
func (a *adzanController) volume(c *gin.Context) (any, *APIError) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errorf(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := a.adzan.SetVolume(*req.Volume); err != nil {
		return nil, errorf(http.StatusInternalServerError, err.Error())
	}
	if a.store != nil {
		if err := a.store.SaveAdzanSettings(c.Request.Context(), a.adzan.Settings()); err != nil {
			log.Error().Err(err).Msg("api: failed to persist volume")
			return nil, errorf(http.StatusInternalServerError, "volume applied but not saved")
		}
	}
	return a.adzan.State(), nil
}
