// Package daylight computes civil sunrise and sunset for a spot and derives
// the whole-hour local daylight window used to clamp a day's riding window.
package daylight

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/spotwind/spotwind/pkg/navigability"
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// equationOfTime returns the offset between apparent and mean solar time in
// minutes at the given instant.
func equationOfTime(t time.Time) float64 {
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))            // Mean longitude of the Sun (degrees)
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))             // Mean anomaly of the Sun (degrees)
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)                  // Eccentricity of Earth's orbit
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60 // Mean obliquity of the ecliptic (degrees)

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4 // Convert to minutes (4 min/degree)
}

// declination returns the solar declination in radians for a day of year.
func declination(dayOfYear int) float64 {
	doy := float64(dayOfYear)
	inner := degToRad(356.6 + 0.9856*doy)
	outer := degToRad(278.97 + 0.9856*doy + 1.9165*math.Sin(inner))
	return math.Asin(0.39785 * math.Sin(outer))
}

// sunEvents returns sunrise and sunset as fractional minutes relative to
// midnight UTC of the given date. The values are not normalized into a
// single day, so an event on the neighboring UTC date keeps its offset.
func sunEvents(date time.Time, latitude, longitude float64) (rise, set float64, polarDay, polarNight bool) {
	decl := declination(date.YearDay())

	// cos of the hour angle at sunrise/sunset, where the sun crosses the horizon
	cosH := -math.Tan(degToRad(latitude)) * math.Tan(decl)
	if cosH < -1.0 {
		return 0, 0, true, false
	}
	if cosH > 1.0 {
		return 0, 0, false, true
	}

	hourAngleMinutes := radToDeg(math.Acos(cosH)) * 4.0 // 4 min/degree

	noonRef := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	solarNoon := 720.0 - longitude*4.0 - equationOfTime(noonRef)

	return solarNoon - hourAngleMinutes, solarNoon + hourAngleMinutes, false, false
}

// SunTimes returns sunrise and sunset as whole minutes from midnight UTC for
// the given date and coordinates. Both are -1 during polar day and polar
// night; use Window when the distinction matters.
func SunTimes(date time.Time, latitude, longitude float64) (sunriseMinutes, sunsetMinutes int) {
	rise, set, polarDay, polarNight := sunEvents(date, latitude, longitude)
	if polarDay || polarNight {
		return -1, -1
	}

	rise = math.Mod(rise+1440.0, 1440.0)
	set = math.Mod(set+1440.0, 1440.0)
	return int(math.Round(rise)), int(math.Round(set))
}

// Window returns the daylight hours of the given local calendar date as a
// half-open hour range in loc. The hours containing sunrise and sunset both
// count as daylight. ok is false on polar night; polar day yields the full
// 0-24 range.
func Window(date time.Time, latitude, longitude float64, loc *time.Location) (startHour, endHour int, ok bool) {
	rise, set, polarDay, polarNight := sunEvents(date, latitude, longitude)
	if polarNight {
		return 0, 0, false
	}
	if polarDay {
		return 0, 24, true
	}

	utcMidnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	sunrise := utcMidnight.Add(time.Duration(rise * float64(time.Minute))).In(loc)
	sunset := utcMidnight.Add(time.Duration(set * float64(time.Minute))).In(loc)

	localMidnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	nextMidnight := localMidnight.AddDate(0, 0, 1)

	// Sunrise or sunset can land on a neighboring local date when the
	// timezone offset fights the longitude; clamp to this date's hours.
	startHour = 0
	if sunrise.After(localMidnight) {
		if !sunrise.Before(nextMidnight) {
			return 0, 0, false
		}
		startHour = sunrise.Hour()
	}

	endHour = 24
	if sunset.Before(nextMidnight) {
		if !sunset.After(localMidnight) {
			return 0, 0, false
		}
		endHour = sunset.Hour() + 1
	}

	if endHour <= startHour {
		return 0, 0, false
	}
	return startHour, endHour, true
}

// Clamp narrows the day window of cfg to the daylight hours at the given
// coordinates and date. ok is false when no daylight overlaps the window,
// in which case the day has no rideable hours at all and the returned
// config must not be used.
func Clamp(cfg navigability.Config, date time.Time, latitude, longitude float64, loc *time.Location) (navigability.Config, bool) {
	start, end, ok := Window(date, latitude, longitude, loc)
	if !ok {
		return cfg, false
	}

	if start > cfg.DayStartHour {
		cfg.DayStartHour = start
	}
	if end < cfg.DayEndHour {
		cfg.DayEndHour = end
	}
	if cfg.DayEndHour <= cfg.DayStartHour {
		return cfg, false
	}
	return cfg, true
}
