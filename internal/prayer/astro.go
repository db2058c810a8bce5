package prayer

import "math"

// riseSetAngle is the sun depression at sunrise and sunset, accounting for
// refraction and the solar disc radius.
const riseSetAngle = 0.833

func dsin(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func dcos(d float64) float64 { return math.Cos(d * math.Pi / 180) }
func dtan(d float64) float64 { return math.Tan(d * math.Pi / 180) }
func darcsin(x float64) float64 { return math.Asin(x) * 180 / math.Pi }
func darccos(x float64) float64 { return math.Acos(x) * 180 / math.Pi }
func darccot(x float64) float64 { return math.Atan(1/x) * 180 / math.Pi }
func darctan2(y, x float64) float64 {
	return math.Atan2(y, x) * 180 / math.Pi
}

func fix(a, b float64) float64 {
	a -= b * math.Floor(a/b)
	if a < 0 {
		a += b
	}
	return a
}

// julianDate returns the Julian date at 0h UT of the given civil date.
func julianDate(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

// solarDay evaluates sun positions for one date at one place. Times it
// returns are fractional hours of local mean time.
type solarDay struct {
	jd  float64
	lat float64
}

func newSolarDay(year, month, day int, loc Location) solarDay {
	return solarDay{
		jd:  julianDate(year, month, day) - loc.Longitude/(15*24),
		lat: loc.Latitude,
	}
}

// position returns the sun declination and the equation of time at the
// given portion of the day.
func (s solarDay) position(portion float64) (decl, eqt float64) {
	d := s.jd + portion - 2451545.0
	g := fix(357.529+0.98560028*d, 360)
	q := fix(280.459+0.98564736*d, 360)
	l := fix(q+1.915*dsin(g)+0.020*dsin(2*g), 360)
	e := 23.439 - 0.00000036*d

	ra := darctan2(dcos(e)*dsin(l), dcos(l)) / 15
	eqt = q/15 - fix(ra, 24)
	decl = darcsin(dsin(e) * dsin(l))
	return decl, eqt
}

func (s solarDay) midDay(portion float64) float64 {
	_, eqt := s.position(portion)
	return fix(12-eqt, 24)
}

// sunAngleTime returns the time the sun is angle degrees below the horizon,
// before noon when ccw is set. ok is false when the sun never reaches that
// angle; the hour angle is then clamped to its nearest reachable value.
func (s solarDay) sunAngleTime(angle, portion float64, ccw bool) (float64, bool) {
	decl, _ := s.position(portion)
	noon := s.midDay(portion)

	x := (-dsin(angle) - dsin(decl)*dsin(s.lat)) / (dcos(decl) * dcos(s.lat))
	ok := x >= -1 && x <= 1
	x = math.Max(-1, math.Min(1, x))

	t := darccos(x) / 15
	if ccw {
		return noon - t, ok
	}
	return noon + t, ok
}

func (s solarDay) asrTime(factor, portion float64) (float64, bool) {
	decl, _ := s.position(portion)
	angle := -darccot(factor + dtan(math.Abs(s.lat-decl)))
	return s.sunAngleTime(angle, portion, false)
}

// rawTimes are local-mean-time hours before adjustments.
type rawTimes struct {
	fajr, sunrise, dhuhr, asr, sunset, maghrib, isha float64
}

// computeRaw runs the calculation for one date. ishaInterval is in minutes.
func computeRaw(year, month, day int, loc Location, s Settings, ishaInterval int) rawTimes {
	p := s.Method.Params()
	sd := newSolarDay(year, month, day, loc)

	guess := rawTimes{fajr: 5, sunrise: 6, dhuhr: 12, asr: 13, sunset: 18, maghrib: 18, isha: 18}
	var (
		t              rawTimes
		fajrOK, ishaOK bool
	)

	for i := 0; i < 2; i++ {
		t.fajr, fajrOK = sd.sunAngleTime(p.FajrAngle, guess.fajr/24, true)
		t.sunrise, _ = sd.sunAngleTime(riseSetAngle, guess.sunrise/24, true)
		t.dhuhr = sd.midDay(guess.dhuhr / 24)
		t.asr, _ = sd.asrTime(s.Madhab.shadowFactor(), guess.asr/24)
		t.sunset, _ = sd.sunAngleTime(riseSetAngle, guess.sunset/24, false)

		t.maghrib = t.sunset
		if p.MaghribAngle > 0 {
			if m, ok := sd.sunAngleTime(p.MaghribAngle, guess.maghrib/24, false); ok {
				t.maghrib = m
			}
		}

		if ishaInterval > 0 {
			t.isha, ishaOK = t.maghrib+float64(ishaInterval)/60, true
		} else {
			t.isha, ishaOK = sd.sunAngleTime(p.IshaAngle, guess.isha/24, false)
		}

		guess = t
	}

	applyHighLatitude(&t, fajrOK, ishaOK, ishaInterval > 0, p, s.highLatitudeRule())
	return t
}

// applyHighLatitude bounds Subuh and Isya by a portion of the night.
func applyHighLatitude(t *rawTimes, fajrOK, ishaOK, ishaFixed bool, p MethodParams, rule HighLatitudeRule) {
	night := 24 - (t.sunset - t.sunrise)

	portion := func(angle float64) float64 {
		switch rule {
		case SeventhOfTheNight:
			return night / 7
		case TwilightAngle:
			return angle / 60 * night
		default:
			return night / 2
		}
	}

	if safe := t.sunrise - portion(p.FajrAngle); !fajrOK || t.fajr < safe {
		t.fajr = safe
	}
	if ishaFixed {
		return
	}
	if safe := t.sunset + portion(p.IshaAngle); !ishaOK || t.isha > safe {
		t.isha = safe
	}
}
