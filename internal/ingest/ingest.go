// Package ingest turns raw per-parameter wind time series into the hourly
// day series the navigability engine consumes. Upstream fetching is out of
// scope; this is the boundary an external fetcher delivers into.
package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spotwind/spotwind/pkg/navigability"
)

// Point is one observation of a single parameter on the UTC time axis.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is one upstream parameter stream: wind speed, gust, direction or
// sunshine minutes.
type Series []Point

// DaySeries is one local calendar day of merged hourly samples at a spot.
// Date is midnight in the spot's timezone.
type DaySeries struct {
	Date    time.Time                   `json:"date"`
	Samples []navigability.HourlySample `json:"samples"`
}

// SampleSource delivers merged day series for a spot. Implementations pull
// from an upstream provider; the refresher drives them on its schedule. The
// shipped binary runs without one and relies on pushed samples instead.
type SampleSource interface {
	DaySeries(ctx context.Context, spotID string, days int) ([]DaySeries, error)
}

// MergeHourly joins the four parameter streams on their hour-truncated UTC
// timestamps and groups the result into local calendar days.
//
// An instant missing any of speed, gust or direction is skipped; NaN values
// count as missing. Missing sunshine defaults to zero. Directions are
// normalized into [0,360) and labeled. On a DST fold the first occurrence
// of a repeated local hour wins, so each returned day holds hour-ascending,
// hour-unique samples.
func MergeHourly(speed, gust, direction, sunshine Series, loc *time.Location) ([]DaySeries, error) {
	if loc == nil {
		loc = time.UTC
	}

	speedIdx := indexHourly(speed)
	gustIdx := indexHourly(gust)
	directionIdx := indexHourly(direction)
	sunshineIdx := indexHourly(sunshine)

	instants := make([]time.Time, 0, len(speedIdx))
	for t := range speedIdx {
		if _, ok := gustIdx[t]; !ok {
			continue
		}
		if _, ok := directionIdx[t]; !ok {
			continue
		}
		instants = append(instants, t)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })

	var days []DaySeries
	for _, t := range instants {
		spd := speedIdx[t]
		gst := gustIdx[t]
		dir := directionIdx[t]

		if spd < 0 || math.IsInf(spd, 0) {
			return nil, fmt.Errorf("speed at %s: invalid value %v", t.Format(time.RFC3339), spd)
		}
		if gst < 0 || math.IsInf(gst, 0) {
			return nil, fmt.Errorf("gust at %s: invalid value %v", t.Format(time.RFC3339), gst)
		}
		if math.IsInf(dir, 0) {
			return nil, fmt.Errorf("direction at %s: invalid value %v", t.Format(time.RFC3339), dir)
		}
		dir = math.Mod(dir, 360)
		if dir < 0 {
			dir += 360
		}

		sunshine := 0
		if v, ok := sunshineIdx[t]; ok && v > 0 {
			sunshine = int(math.Round(v))
		}

		local := t.In(loc)
		year, month, day := local.Date()

		if len(days) == 0 || !sameDate(days[len(days)-1].Date, year, month, day) {
			days = append(days, DaySeries{
				Date: time.Date(year, month, day, 0, 0, 0, 0, loc),
			})
		}

		current := &days[len(days)-1]
		hour := local.Hour()
		if n := len(current.Samples); n > 0 && hour <= current.Samples[n-1].Hour {
			// Repeated local hour on a DST fold: keep the first.
			continue
		}

		current.Samples = append(current.Samples, navigability.HourlySample{
			Hour:            hour,
			Speed:           spd,
			Gust:            gst,
			Direction:       dir,
			DirectionLabel:  navigability.CompassPoint(dir),
			SunshineMinutes: sunshine,
		})
	}

	return days, nil
}

// indexHourly maps a series by its hour-truncated UTC timestamps. NaN
// values are dropped; the first point seen for an hour wins.
func indexHourly(s Series) map[time.Time]float64 {
	idx := make(map[time.Time]float64, len(s))
	for _, p := range s {
		if math.IsNaN(p.Value) {
			continue
		}
		t := p.Time.UTC().Truncate(time.Hour)
		if _, ok := idx[t]; ok {
			continue
		}
		idx[t] = p.Value
	}
	return idx
}

func sameDate(date time.Time, year int, month time.Month, day int) bool {
	y, m, d := date.Date()
	return y == year && m == month && d == day
}
