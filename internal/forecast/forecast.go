// Package forecast assembles per-day navigability outlooks from merged day
// series and renders them for delivery.
package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/spotwind/spotwind/internal/ingest"
	"github.com/spotwind/spotwind/pkg/config"
	"github.com/spotwind/spotwind/pkg/daylight"
	"github.com/spotwind/spotwind/pkg/navigability"
)

// DayPlan is one day's computed outlook for one spot.
type DayPlan struct {
	Date            time.Time           `json:"date"`
	Slots           []navigability.Slot `json:"slots"`
	SunshineMinutes int                 `json:"sunshineMinutes"`
	SampleCount     int                 `json:"sampleCount"`
}

// Option adjusts how day plans are built.
type Option func(*options)

type options struct {
	daylight  bool
	latitude  float64
	longitude float64
	location  *time.Location
}

// WithDaylight clamps each day's riding window to civil daylight at the
// given coordinates before running the engine.
func WithDaylight(latitude, longitude float64, loc *time.Location) Option {
	return func(o *options) {
		o.daylight = true
		o.latitude = latitude
		o.longitude = longitude
		o.location = loc
	}
}

// SpotOptions returns the build options a spot's configuration implies:
// daylight clamping when the spot is marked daylight-only.
func SpotOptions(spot config.SpotData, loc *time.Location) []Option {
	if !spot.DaylightOnly {
		return nil
	}
	return []Option{WithDaylight(spot.Latitude, spot.Longitude, loc)}
}

// BuildDayPlans runs the navigability engine over each day series. A day
// whose effective window is empty (daylight clamping on a polar night, or a
// window entirely outside daylight) yields a plan with zero slots rather
// than an error.
func BuildDayPlans(days []ingest.DaySeries, cfg navigability.Config, opts ...Option) ([]DayPlan, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	plans := make([]DayPlan, 0, len(days))
	for _, day := range days {
		plan := DayPlan{
			Date:        day.Date,
			Slots:       []navigability.Slot{},
			SampleCount: len(day.Samples),
		}
		for _, s := range day.Samples {
			plan.SunshineMinutes += s.SunshineMinutes
		}

		dayCfg := cfg
		run := true
		if o.daylight {
			loc := o.location
			if loc == nil {
				loc = day.Date.Location()
			}
			dayCfg, run = daylight.Clamp(cfg, day.Date, o.latitude, o.longitude, loc)
		}

		if run {
			slots, err := navigability.CalculateSlots(day.Samples, dayCfg)
			if err != nil {
				return nil, fmt.Errorf("planning %s: %w", day.Date.Format("2006-01-02"), err)
			}
			if slots != nil {
				plan.Slots = slots
			}
		}

		plans = append(plans, plan)
	}

	return plans, nil
}

// Upcoming returns the plans for today and later. Today is determined in
// each plan's own timezone from the passed instant; callers inject the
// clock.
func Upcoming(plans []DayPlan, today time.Time) []DayPlan {
	var out []DayPlan
	for _, p := range plans {
		year, month, day := today.In(p.Date.Location()).Date()
		start := time.Date(year, month, day, 0, 0, 0, 0, p.Date.Location())
		if !p.Date.Before(start) {
			out = append(out, p)
		}
	}
	return out
}

// FirstWithSlots returns the earliest plan that has at least one slot.
func FirstWithSlots(plans []DayPlan) (DayPlan, bool) {
	for _, p := range plans {
		if len(p.Slots) > 0 {
			return p, true
		}
	}
	return DayPlan{}, false
}

// FormatSlot renders one slot in the delivery format:
// "18-28 km/h S (10h-14h)".
func FormatSlot(s navigability.Slot) string {
	return fmt.Sprintf("%d-%d km/h %s (%dh-%dh)", s.AvgSpeed, s.AvgGust, s.Direction, s.StartHour, s.EndHour)
}

// ComposeDigest renders the plain-text summary a delivery collaborator
// would push for one day at one spot.
func ComposeDigest(spotName string, plan DayPlan) string {
	date := plan.Date.Format("Mon 2 Jan")
	if len(plan.Slots) == 0 {
		return fmt.Sprintf("%s %s: no navigable windows", spotName, date)
	}

	parts := make([]string, 0, len(plan.Slots))
	for _, s := range plan.Slots {
		parts = append(parts, FormatSlot(s))
	}
	return fmt.Sprintf("%s %s: %s", spotName, date, strings.Join(parts, ", "))
}
