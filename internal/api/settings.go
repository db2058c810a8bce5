package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/masjid-display/internal/adzan"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
	"github.com/smokyabdulrahman/masjid-display/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	parses := func(parse func(string) error) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return parse(fl.Field().String()) == nil
		}
	}
	_ = v.RegisterValidation("method", parses(func(s string) error {
		_, err := prayer.ParseMethod(s)
		return err
	}))
	_ = v.RegisterValidation("madhab", parses(func(s string) error {
		_, err := prayer.ParseMadhab(s)
		return err
	}))
	_ = v.RegisterValidation("highlat", parses(func(s string) error {
		_, err := prayer.ParseHighLatitudeRule(s)
		return err
	}))
	return v
}

// validationError turns validator output into a 400 with per-field tags.
func validationError(err error) *APIError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errorf(http.StatusBadRequest, err.Error())
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return &APIError{Code: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

// PrayerSettingsInput is the body of PUT /api/settings/prayer.
type PrayerSettingsInput struct {
	Latitude          *float64       `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude         *float64       `json:"longitude" validate:"required,gte=-180,lte=180"`
	CalculationMethod string         `json:"calculationMethod" validate:"required,method"`
	Madhab            string         `json:"madhab" validate:"omitempty,madhab"`
	Adjustments       map[string]int `json:"adjustments" validate:"omitempty,dive,keys,oneof=fajr sunrise dhuhr asr maghrib isha,endkeys,gte=-120,lte=120"`
	HighLatitudeRule  string         `json:"highLatitudeRule" validate:"omitempty,highlat"`
	Timezone          string         `json:"timezone" validate:"omitempty,timezone"`
	HijriAdjustment   int            `json:"hijriAdjustment" validate:"gte=-2,lte=2"`
}

// Config converts a validated input.
func (in PrayerSettingsInput) Config() adzan.PrayerConfig {
	method, _ := prayer.ParseMethod(in.CalculationMethod)
	cfg := adzan.PrayerConfig{
		Latitude:          *in.Latitude,
		Longitude:         *in.Longitude,
		CalculationMethod: method,
		Madhab:            prayer.MadhabShafi,
		HighLatitudeRule:  prayer.MiddleOfTheNight,
		Timezone:          in.Timezone,
		HijriAdjustment:   in.HijriAdjustment,
	}
	if in.Madhab != "" {
		cfg.Madhab, _ = prayer.ParseMadhab(in.Madhab)
	}
	if in.HighLatitudeRule != "" {
		cfg.HighLatitudeRule, _ = prayer.ParseHighLatitudeRule(in.HighLatitudeRule)
	}
	if len(in.Adjustments) > 0 {
		cfg.Adjustments = make(map[prayer.Key]int, len(in.Adjustments))
		for k, v := range in.Adjustments {
			cfg.Adjustments[prayer.Key(k)] = v
		}
	}
	return cfg
}

type settingsController struct {
	adzan Adzan
	store store.Store
}

// SettingsModule mounts the prayer and adzan settings endpoints.
func SettingsModule(a Adzan, s store.Store) Module {
	ctl := &settingsController{adzan: a, store: s}
	return ModuleFunc(func(c *Controller) {
		c.GET("/settings/prayer", ctl.getPrayer)
		c.PUT("/settings/prayer", ctl.putPrayer)
		c.GET("/settings/adzan", ctl.getAdzan)
		c.PUT("/settings/adzan", ctl.putAdzan)
	})
}

// GET /api/settings/prayer
func (s *settingsController) getPrayer(*gin.Context) (any, *APIError) {
	return s.adzan.PrayerConfig(), nil
}

// PUT /api/settings/prayer
func (s *settingsController) putPrayer(c *gin.Context) (any, *APIError) {
	var in PrayerSettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return nil, errorf(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	cfg := in.Config()
	if err := s.adzan.UpdatePrayerSettings(cfg); err != nil {
		return nil, errorf(http.StatusBadRequest, err.Error())
	}
	if s.store != nil {
		if err := s.store.SavePrayerConfig(c.Request.Context(), cfg); err != nil {
			log.Error().Err(err).Msg("api: failed to persist prayer settings")
			return nil, errorf(http.StatusInternalServerError, "settings applied but not saved")
		}
	}
	return cfg, nil
}

// GET /api/settings/adzan
func (s *settingsController) getAdzan(*gin.Context) (any, *APIError) {
	return s.adzan.Settings(), nil
}

// PUT /api/settings/adzan accepts a partial document.
func (s *settingsController) putAdzan(c *gin.Context) (any, *APIError) {
	var patch adzan.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		return nil, errorf(http.StatusBadRequest, err.Error())
	}

	updated := s.adzan.UpdateSettings(patch)
	if s.store != nil {
		if err := s.store.SaveAdzanSettings(c.Request.Context(), updated); err != nil {
			log.Error().Err(err).Msg("api: failed to persist adzan settings")
			return nil, errorf(http.StatusInternalServerError, "settings applied but not saved")
		}
	}
	return updated, nil
}
