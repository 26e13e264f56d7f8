package config

import (
	"time"

	"github.com/spotwind/spotwind/pkg/navigability"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSpots() ([]SpotData, error)
	GetThresholds() (*ThresholdData, error)
	GetRiders() ([]RiderData, error)
	GetControllers() ([]ControllerData, error)

	// Configuration management (for SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Spots       []SpotData       `json:"spots"`
	Thresholds  ThresholdData    `json:"thresholds"`
	Riders      []RiderData      `json:"riders,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// SpotData holds one configured riding spot: a fixed geographic point whose
// wind conditions are evaluated day by day.
type SpotData struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Timezone     string  `json:"timezone,omitempty"`
	DaylightOnly bool    `json:"daylight_only,omitempty"`
	Enabled      bool    `json:"enabled"`
}

// Location resolves the spot's IANA timezone. An empty timezone means UTC.
func (s *SpotData) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// ThresholdData holds the default navigability thresholds applied to every
// spot unless a rider override says otherwise.
type ThresholdData struct {
	WindSpeedMin        float64  `json:"wind_speed_min"`
	GustMin             float64  `json:"gust_min"`
	WindSpeedMax        *float64 `json:"wind_speed_max,omitempty"`
	MinConsecutiveHours int      `json:"min_consecutive_hours"`
	DayStartHour        int      `json:"day_start_hour"`
	DayEndHour          int      `json:"day_end_hour"`
}

// Config converts the thresholds into the engine's form.
func (t *ThresholdData) Config() navigability.Config {
	return navigability.Config{
		WindSpeedMin:        t.WindSpeedMin,
		GustMin:             t.GustMin,
		WindSpeedMax:        t.WindSpeedMax,
		MinConsecutiveHours: t.MinConsecutiveHours,
		DayStartHour:        t.DayStartHour,
		DayEndHour:          t.DayEndHour,
	}
}

// RiderData holds per-rider threshold overrides. A nil field inherits the
// global default.
type RiderData struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	WindSpeedMin *float64 `json:"wind_speed_min,omitempty"`
	GustMin      *float64 `json:"gust_min,omitempty"`
	WindSpeedMax *float64 `json:"wind_speed_max,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
	Refresher  *RefresherData  `json:"refresher,omitempty"`
}

// Controller configuration structs
type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

type RefresherData struct {
	Interval      string `json:"interval,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`
	HorizonDays   int    `json:"horizon_days,omitempty"`
}

// Spot returns the spot with the given ID, or false when it is not
// configured.
func (c *ConfigData) Spot(id string) (*SpotData, bool) {
	for i := range c.Spots {
		if c.Spots[i].ID == id {
			return &c.Spots[i], true
		}
	}
	return nil, false
}

// Rider returns the rider with the given ID, or false when it is not
// configured.
func (c *ConfigData) Rider(id string) (*RiderData, bool) {
	for i := range c.Riders {
		if c.Riders[i].ID == id {
			return &c.Riders[i], true
		}
	}
	return nil, false
}

// RiderConfig merges the global thresholds with a rider's overrides into an
// engine config. An empty or unknown rider ID yields the plain defaults.
func (c *ConfigData) RiderConfig(riderID string) navigability.Config {
	cfg := c.Thresholds.Config()
	if riderID == "" {
		return cfg
	}

	rider, ok := c.Rider(riderID)
	if !ok {
		return cfg
	}

	if rider.WindSpeedMin != nil {
		cfg.WindSpeedMin = *rider.WindSpeedMin
	}
	if rider.GustMin != nil {
		cfg.GustMin = *rider.GustMin
	}
	if rider.WindSpeedMax != nil {
		cfg.WindSpeedMax = rider.WindSpeedMax
	}
	return cfg
}
