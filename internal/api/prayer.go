package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/smokyabdulrahman/masjid-display/internal/hijri"
	"github.com/smokyabdulrahman/masjid-display/internal/prayer"
)

const dateLayout = "2006-01-02"

type prayerController struct {
	adzan Adzan
	clock clockwork.Clock
}

// PrayerModule mounts the schedule and calendar endpoints.
func PrayerModule(a Adzan, clock clockwork.Clock) Module {
	ctl := &prayerController{adzan: a, clock: clock}
	return ModuleFunc(func(c *Controller) {
		c.GET("/prayer-times", ctl.schedule)
		c.GET("/prayer-times/next", ctl.next)
		c.GET("/hijri", ctl.hijriDate)
	})
}

// ScheduleResponse is one day of prayer times.
type ScheduleResponse struct {
	Date       string       `json:"date"`
	Timezone   string       `json:"timezone"`
	Times      prayer.Times `json:"times"`
	Hijri      hijri.Date   `json:"hijri"`
	HijriLabel string       `json:"hijriLabel"`
	SpecialDay string       `json:"specialDay,omitempty"`
}

// NextResponse is the upcoming prayer and the period in effect.
type NextResponse struct {
	Name      prayer.Name `json:"name"`
	Label     string      `json:"label"`
	Time      time.Time   `json:"time"`
	Countdown string      `json:"countdown"`
	Current   prayer.Name `json:"current"`
}

// HijriResponse is a Hijri date with its display label.
type HijriResponse struct {
	Date       string     `json:"date"`
	Hijri      hijri.Date `json:"hijri"`
	Label      string     `json:"label"`
	SpecialDay string     `json:"specialDay,omitempty"`
}

// day resolves the ?date= query in the display's timezone, defaulting to
// today.
func (p *prayerController) day(c *gin.Context) (time.Time, *time.Location, *APIError) {
	tz, err := p.adzan.PrayerConfig().TimeLocation()
	if err != nil {
		return time.Time{}, nil, errorf(http.StatusInternalServerError, err.Error())
	}
	raw := c.Query("date")
	if raw == "" {
		return p.clock.Now().In(tz), tz, nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, tz)
	if err != nil {
		return time.Time{}, nil, errorf(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	return d, tz, nil
}

func calcError(err error) *APIError {
	if errors.Is(err, prayer.ErrInvalidLocation) {
		return errorf(http.StatusUnprocessableEntity, err.Error())
	}
	return errorf(http.StatusInternalServerError, err.Error())
}

// GET /api/prayer-times
func (p *prayerController) schedule(c *gin.Context) (any, *APIError) {
	day, tz, apiErr := p.day(c)
	if apiErr != nil {
		return nil, apiErr
	}
	cfg := p.adzan.PrayerConfig()
	sched, err := prayer.Calculate(day, cfg.Location(), cfg.Settings())
	if err != nil {
		return nil, calcError(err)
	}

	h := hijri.FromTime(day, cfg.HijriAdjustment)
	special, _ := hijri.SpecialDay(h)
	return ScheduleResponse{
		Date:       day.Format(dateLayout),
		Timezone:   tz.String(),
		Times:      sched.Times(),
		Hijri:      h,
		HijriLabel: h.Format(),
		SpecialDay: special,
	}, nil
}

// GET /api/prayer-times/next
func (p *prayerController) next(c *gin.Context) (any, *APIError) {
	cfg := p.adzan.PrayerConfig()
	tz, err := cfg.TimeLocation()
	if err != nil {
		return nil, errorf(http.StatusInternalServerError, err.Error())
	}
	now := p.clock.Now().In(tz)

	next, err := prayer.NextPrayer(now, cfg.Location(), cfg.Settings())
	if err != nil {
		return nil, calcError(err)
	}
	cur, err := prayer.CurrentPrayer(now, cfg.Location(), cfg.Settings())
	if err != nil {
		return nil, calcError(err)
	}
	return NextResponse{
		Name:      next.Name,
		Label:     next.Name.Label(),
		Time:      next.Time,
		Countdown: prayer.FormatCountdown(prayer.TimeRemaining(*next, now)),
		Current:   cur,
	}, nil
}

// GET /api/hijri
func (p *prayerController) hijriDate(c *gin.Context) (any, *APIError) {
	day, _, apiErr := p.day(c)
	if apiErr != nil {
		return nil, apiErr
	}
	h := hijri.FromTime(day, p.adzan.PrayerConfig().HijriAdjustment)
	special, _ := hijri.SpecialDay(h)
	return HijriResponse{
		Date:       day.Format(dateLayout),
		Hijri:      h,
		Label:      h.Format(),
		SpecialDay: special,
	}, nil
}
