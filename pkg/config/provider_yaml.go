package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Spots       []SpotYAML       `yaml:"spots"`
		Thresholds  ThresholdYAML    `yaml:"thresholds"`
		Riders      []RiderYAML      `yaml:"riders,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Spots:       make([]SpotData, len(yamlConfig.Spots)),
		Riders:      make([]RiderData, len(yamlConfig.Riders)),
		Controllers: make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, spot := range yamlConfig.Spots {
		config.Spots[i] = SpotData{
			ID:           spot.ID,
			Name:         spot.Name,
			Latitude:     spot.Latitude,
			Longitude:    spot.Longitude,
			Timezone:     spot.Timezone,
			DaylightOnly: spot.DaylightOnly,
			Enabled:      spot.Enabled,
		}
	}

	config.Thresholds = ThresholdData{
		WindSpeedMin:        yamlConfig.Thresholds.WindSpeedMin,
		GustMin:             yamlConfig.Thresholds.GustMin,
		WindSpeedMax:        yamlConfig.Thresholds.WindSpeedMax,
		MinConsecutiveHours: yamlConfig.Thresholds.MinConsecutiveHours,
		DayStartHour:        yamlConfig.Thresholds.DayStartHour,
		DayEndHour:          yamlConfig.Thresholds.DayEndHour,
	}

	for i, rider := range yamlConfig.Riders {
		config.Riders[i] = RiderData{
			ID:           rider.ID,
			Name:         rider.Name,
			WindSpeedMin: rider.WindSpeedMin,
			GustMin:      rider.GustMin,
			WindSpeedMax: rider.WindSpeedMax,
		}
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:       controller.RESTServer.Cert,
				Key:        controller.RESTServer.Key,
				Port:       controller.RESTServer.Port,
				ListenAddr: controller.RESTServer.ListenAddr,
			}
		}

		if controller.Refresher != nil {
			config.Controllers[i].Refresher = &RefresherData{
				Interval:      controller.Refresher.Interval,
				RetentionDays: controller.Refresher.RetentionDays,
				HorizonDays:   controller.Refresher.HorizonDays,
			}
		}
	}

	y.config = config
	return config, nil
}

// GetSpots returns the configured spots
func (y *YAMLProvider) GetSpots() ([]SpotData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Spots, nil
}

// GetThresholds returns the default navigability thresholds
func (y *YAMLProvider) GetThresholds() (*ThresholdData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Thresholds, nil
}

// GetRiders returns the rider override configurations
func (y *YAMLProvider) GetRiders() ([]RiderData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Riders, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the config file format
type SpotYAML struct {
	ID           string  `yaml:"id,omitempty"`
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	Timezone     string  `yaml:"timezone,omitempty"`
	DaylightOnly bool    `yaml:"daylight-only,omitempty"`
	Enabled      bool    `yaml:"enabled"`
}

type ThresholdYAML struct {
	WindSpeedMin        float64  `yaml:"wind-speed-min"`
	GustMin             float64  `yaml:"gust-min"`
	WindSpeedMax        *float64 `yaml:"wind-speed-max,omitempty"`
	MinConsecutiveHours int      `yaml:"min-consecutive-hours"`
	DayStartHour        int      `yaml:"day-start-hour"`
	DayEndHour          int      `yaml:"day-end-hour"`
}

type RiderYAML struct {
	ID           string   `yaml:"id,omitempty"`
	Name         string   `yaml:"name"`
	WindSpeedMin *float64 `yaml:"wind-speed-min,omitempty"`
	GustMin      *float64 `yaml:"gust-min,omitempty"`
	WindSpeedMax *float64 `yaml:"wind-speed-max,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
	Refresher  *RefresherYAML  `yaml:"refresher,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}

type RefresherYAML struct {
	Interval      string `yaml:"interval,omitempty"`
	RetentionDays int    `yaml:"retention-days,omitempty"`
	HorizonDays   int    `yaml:"horizon-days,omitempty"`
}
