package navigability

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CalculateSlots scans one day of hourly samples and returns the contiguous
// runs of navigable hours as slots, ordered by start hour. Only hours inside
// the half-open window [DayStartHour, DayEndHour) are considered. A run ends
// at the first hour that misses a threshold, leaves the window, or does not
// immediately follow the previous hour; runs shorter than MinConsecutiveHours
// are discarded. The same input always produces the same output.
//
// The config is checked before any sample is read, and a malformed sample
// rejects the whole call: the returned slots are either complete or nil,
// never partial. Samples must arrive in strictly ascending hour order.
func CalculateSlots(samples []HourlySample, cfg Config) ([]Slot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSamples(samples); err != nil {
		return nil, err
	}

	var slots []Slot
	var run []HourlySample

	closeRun := func() {
		if len(run) >= cfg.MinConsecutiveHours {
			slots = append(slots, buildSlot(run))
		}
		run = run[:0]
	}

	for _, s := range samples {
		if s.Hour < cfg.DayStartHour || s.Hour >= cfg.DayEndHour {
			closeRun()
			continue
		}
		if !cfg.navigable(s) {
			closeRun()
			continue
		}
		// A missing hour breaks the run even when the hours on both
		// sides qualify; slots never bridge gaps in the data.
		if len(run) > 0 && s.Hour != run[len(run)-1].Hour+1 {
			closeRun()
		}
		run = append(run, s)
	}
	closeRun()

	return slots, nil
}

func validateSamples(samples []HourlySample) error {
	for i, s := range samples {
		if s.Hour < 0 || s.Hour > 23 {
			return &SampleError{Index: i, Field: "hour", Reason: "must be between 0 and 23"}
		}
		if i > 0 && s.Hour <= samples[i-1].Hour {
			return &SampleError{Index: i, Field: "hour", Reason: "must be strictly ascending"}
		}
		if math.IsNaN(s.Speed) || math.IsInf(s.Speed, 0) || s.Speed < 0 {
			return &SampleError{Index: i, Field: "speed", Reason: "must be a non-negative finite number"}
		}
		if math.IsNaN(s.Gust) || math.IsInf(s.Gust, 0) || s.Gust < 0 {
			return &SampleError{Index: i, Field: "gust", Reason: "must be a non-negative finite number"}
		}
		if math.IsNaN(s.Direction) || s.Direction < 0 || s.Direction >= 360 {
			return &SampleError{Index: i, Field: "direction", Reason: "must be in [0,360)"}
		}
	}
	return nil
}

// buildSlot summarizes a non-empty run of consecutive navigable hours.
func buildSlot(run []HourlySample) Slot {
	speeds := make([]float64, len(run))
	gusts := make([]float64, len(run))
	directions := make([]float64, len(run))
	for i, s := range run {
		speeds[i] = s.Speed
		gusts[i] = s.Gust
		directions[i] = s.Direction
	}

	return Slot{
		StartHour: run[0].Hour,
		EndHour:   run[len(run)-1].Hour + 1,
		Hours:     len(run),
		AvgSpeed:  int(math.Round(stat.Mean(speeds, nil))),
		AvgGust:   int(math.Round(stat.Mean(gusts, nil))),
		Direction: CompassPoint(AverageDirection(directions)),
	}
}
