// Package navigability determines the rideable time windows in a day of
// hourly wind observations by comparing each hour against rider thresholds
// and grouping the hours that qualify into contiguous slots.
package navigability

import (
	"fmt"
	"math"
)

// HourlySample is one hour of wind observations for a single local day.
// Speed and Gust are km/h, Direction is meteorological degrees in [0,360).
// DirectionLabel and SunshineMinutes are carried through untouched; the
// slot calculation never reads them.
type HourlySample struct {
	Hour            int     `json:"hour"`
	Speed           float64 `json:"speed"`
	Gust            float64 `json:"gust"`
	Direction       float64 `json:"direction"`
	DirectionLabel  string  `json:"directionLabel,omitempty"`
	SunshineMinutes int     `json:"sunshineMinutes,omitempty"`
}

// Config holds the thresholds and day window for a slot calculation.
// WindSpeedMax is optional; nil means no upper bound on wind speed.
// A ceiling below WindSpeedMin is not an error, it just means no hour
// can qualify.
type Config struct {
	WindSpeedMin        float64  `json:"windSpeedMin" yaml:"wind-speed-min"`
	GustMin             float64  `json:"gustMin" yaml:"gust-min"`
	WindSpeedMax        *float64 `json:"windSpeedMax,omitempty" yaml:"wind-speed-max,omitempty"`
	MinConsecutiveHours int      `json:"minConsecutiveHours" yaml:"min-consecutive-hours"`
	DayStartHour        int      `json:"dayStartHour" yaml:"day-start-hour"`
	DayEndHour          int      `json:"dayEndHour" yaml:"day-end-hour"`
}

// Slot is a contiguous run of navigable hours. EndHour is exclusive, so a
// slot covering 10:00 through 13:59 has StartHour 10 and EndHour 14.
// AvgSpeed and AvgGust are rounded to whole km/h and Direction is the
// compass label of the circular mean direction over the run.
type Slot struct {
	StartHour int    `json:"start"`
	EndHour   int    `json:"end"`
	Hours     int    `json:"hours"`
	AvgSpeed  int    `json:"avgSpeed"`
	AvgGust   int    `json:"avgGust"`
	Direction string `json:"direction"`
}

// ConfigError reports a Config that cannot produce a meaningful result.
// It is returned before any samples are examined.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// SampleError reports a malformed or out-of-order sample. The whole
// calculation is rejected; no partial slot list is ever returned.
type SampleError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("invalid sample %d: %s %s", e.Index, e.Field, e.Reason)
}

// Validate checks the config for values that would make the slot scan
// meaningless: an inverted or out-of-range day window, negative or
// non-finite thresholds, or a minimum run length below one hour.
func (c Config) Validate() error {
	if c.DayStartHour < 0 || c.DayStartHour > 24 {
		return &ConfigError{Field: "dayStartHour", Reason: "must be between 0 and 24"}
	}
	if c.DayEndHour < 0 || c.DayEndHour > 24 {
		return &ConfigError{Field: "dayEndHour", Reason: "must be between 0 and 24"}
	}
	if c.DayEndHour <= c.DayStartHour {
		return &ConfigError{Field: "dayEndHour", Reason: "must be greater than dayStartHour"}
	}
	if math.IsNaN(c.WindSpeedMin) || math.IsInf(c.WindSpeedMin, 0) || c.WindSpeedMin < 0 {
		return &ConfigError{Field: "windSpeedMin", Reason: "must be a non-negative finite number"}
	}
	if math.IsNaN(c.GustMin) || math.IsInf(c.GustMin, 0) || c.GustMin < 0 {
		return &ConfigError{Field: "gustMin", Reason: "must be a non-negative finite number"}
	}
	if c.WindSpeedMax != nil {
		if math.IsNaN(*c.WindSpeedMax) || math.IsInf(*c.WindSpeedMax, 0) || *c.WindSpeedMax < 0 {
			return &ConfigError{Field: "windSpeedMax", Reason: "must be a non-negative finite number"}
		}
	}
	if c.MinConsecutiveHours < 1 {
		return &ConfigError{Field: "minConsecutiveHours", Reason: "must be at least 1"}
	}
	return nil
}

// navigable reports whether a single hour meets the wind thresholds.
func (c Config) navigable(s HourlySample) bool {
	if s.Speed < c.WindSpeedMin || s.Gust < c.GustMin {
		return false
	}
	if c.WindSpeedMax != nil && s.Speed > *c.WindSpeedMax {
		return false
	}
	return true
}
