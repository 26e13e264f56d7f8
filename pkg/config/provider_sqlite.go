package config

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// schemaSQL creates the configuration tables on first open. Existing tables
// are left untouched.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at TEXT,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS spots (
	id TEXT PRIMARY KEY,
	config_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	timezone TEXT,
	daylight_only INTEGER NOT NULL DEFAULT 0,
	enabled INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS thresholds (
	config_id INTEGER NOT NULL UNIQUE,
	wind_speed_min REAL NOT NULL,
	gust_min REAL NOT NULL,
	wind_speed_max REAL,
	min_consecutive_hours INTEGER NOT NULL,
	day_start_hour INTEGER NOT NULL,
	day_end_hour INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS riders (
	id TEXT PRIMARY KEY,
	config_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	wind_speed_min REAL,
	gust_min REAL,
	wind_speed_max REAL
);

CREATE TABLE IF NOT EXISTS controller_configs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	config_id INTEGER NOT NULL,
	controller_type TEXT NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1,
	rest_cert TEXT,
	rest_key TEXT,
	rest_port INTEGER,
	rest_listen_addr TEXT,
	refresher_interval TEXT,
	refresher_retention_days INTEGER,
	refresher_horizon_days INTEGER
);
`

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	spots, err := s.GetSpots()
	if err != nil {
		return nil, fmt.Errorf("failed to load spots: %w", err)
	}
	config.Spots = spots

	thresholds, err := s.GetThresholds()
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}
	config.Thresholds = *thresholds

	riders, err := s.GetRiders()
	if err != nil {
		return nil, fmt.Errorf("failed to load riders: %w", err)
	}
	config.Riders = riders

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetSpots returns the configured spots from the database
func (s *SQLiteProvider) GetSpots() ([]SpotData, error) {
	query := `
		SELECT id, name, latitude, longitude, timezone, daylight_only, enabled
		FROM spots
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	defer rows.Close()

	var spots []SpotData
	for rows.Next() {
		var spot SpotData
		var timezone sql.NullString

		err := rows.Scan(
			&spot.ID, &spot.Name, &spot.Latitude, &spot.Longitude,
			&timezone, &spot.DaylightOnly, &spot.Enabled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spot row: %w", err)
		}

		if timezone.Valid {
			spot.Timezone = timezone.String
		}

		spots = append(spots, spot)
	}

	return spots, rows.Err()
}

// GetThresholds returns the default navigability thresholds from the
// database. A database without a thresholds row yields the zero value; the
// caller is expected to validate before use.
func (s *SQLiteProvider) GetThresholds() (*ThresholdData, error) {
	query := `
		SELECT wind_speed_min, gust_min, wind_speed_max,
		       min_consecutive_hours, day_start_hour, day_end_hour
		FROM thresholds
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var thresholds ThresholdData
	var windSpeedMax sql.NullFloat64

	err := s.db.QueryRow(query).Scan(
		&thresholds.WindSpeedMin, &thresholds.GustMin, &windSpeedMax,
		&thresholds.MinConsecutiveHours, &thresholds.DayStartHour, &thresholds.DayEndHour,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return &ThresholdData{}, nil
		}
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}

	thresholds.WindSpeedMax = floatPtrFromNull(windSpeedMax)
	return &thresholds, nil
}

// GetRiders returns the rider override configurations from the database
func (s *SQLiteProvider) GetRiders() ([]RiderData, error) {
	query := `
		SELECT id, name, wind_speed_min, gust_min, wind_speed_max
		FROM riders
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query riders: %w", err)
	}
	defer rows.Close()

	var riders []RiderData
	for rows.Next() {
		var rider RiderData
		var windSpeedMin, gustMin, windSpeedMax sql.NullFloat64

		err := rows.Scan(&rider.ID, &rider.Name, &windSpeedMin, &gustMin, &windSpeedMax)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rider row: %w", err)
		}

		rider.WindSpeedMin = floatPtrFromNull(windSpeedMin)
		rider.GustMin = floatPtrFromNull(gustMin)
		rider.WindSpeedMax = floatPtrFromNull(windSpeedMax)

		riders = append(riders, rider)
	}

	return riders, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	query := `
		SELECT controller_type,
		       rest_cert, rest_key, rest_port, rest_listen_addr,
		       refresher_interval, refresher_retention_days, refresher_horizon_days
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default') AND enabled = 1
		ORDER BY controller_type
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query controller configs: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controllerType string
		var restCert, restKey, restListenAddr sql.NullString
		var restPort sql.NullInt64
		var refresherInterval sql.NullString
		var retentionDays, horizonDays sql.NullInt64

		err := rows.Scan(
			&controllerType,
			&restCert, &restKey, &restPort, &restListenAddr,
			&refresherInterval, &retentionDays, &horizonDays,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan controller config row: %w", err)
		}

		controller := ControllerData{
			Type: controllerType,
		}

		switch controllerType {
		case "rest":
			controller.RESTServer = &RESTServerData{
				Cert:       restCert.String,
				Key:        restKey.String,
				Port:       int(restPort.Int64),
				ListenAddr: restListenAddr.String,
			}
		case "refresher":
			controller.Refresher = &RefresherData{
				Interval:      refresherInterval.String,
				RetentionDays: int(retentionDays.Int64),
				HorizonDays:   int(horizonDays.Int64),
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write methods for configuration management

// SaveConfig saves complete configuration to the database
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to get config ID: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}
	if _, err := tx.Exec("UPDATE configs SET updated_at = datetime('now') WHERE id = ?", configID); err != nil {
		return fmt.Errorf("failed to touch config: %w", err)
	}

	for _, spot := range configData.Spots {
		if err := s.insertSpot(tx, configID, &spot); err != nil {
			return fmt.Errorf("failed to insert spot %s: %w", spot.Name, err)
		}
	}

	if err := s.insertThresholds(tx, configID, &configData.Thresholds); err != nil {
		return fmt.Errorf("failed to insert thresholds: %w", err)
	}

	for _, rider := range configData.Riders {
		if err := s.insertRider(tx, configID, &rider); err != nil {
			return fmt.Errorf("failed to insert rider %s: %w", rider.Name, err)
		}
	}

	for _, controller := range configData.Controllers {
		if err := s.insertController(tx, configID, &controller); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", controller.Type, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) insertConfig(tx *sql.Tx, name string) (int64, error) {
	query := `INSERT OR REPLACE INTO configs (name, created_at, updated_at) VALUES (?, datetime('now'), datetime('now'))`
	result, err := tx.Exec(query, name)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM spots WHERE config_id = ?",
		"DELETE FROM thresholds WHERE config_id = ?",
		"DELETE FROM riders WHERE config_id = ?",
		"DELETE FROM controller_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertSpot(tx *sql.Tx, configID int64, spot *SpotData) error {
	// Generate a spot ID if not provided
	if spot.ID == "" {
		spot.ID = uuid.New().String()
	}

	query := `
		INSERT INTO spots (
			id, config_id, name, latitude, longitude, timezone, daylight_only, enabled
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		spot.ID, configID, spot.Name, spot.Latitude, spot.Longitude,
		nullString(spot.Timezone), spot.DaylightOnly, spot.Enabled,
	)
	return err
}

func (s *SQLiteProvider) insertThresholds(tx *sql.Tx, configID int64, thresholds *ThresholdData) error {
	query := `
		INSERT INTO thresholds (
			config_id, wind_speed_min, gust_min, wind_speed_max,
			min_consecutive_hours, day_start_hour, day_end_hour
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		configID, thresholds.WindSpeedMin, thresholds.GustMin,
		nullFromFloatPtr(thresholds.WindSpeedMax),
		thresholds.MinConsecutiveHours, thresholds.DayStartHour, thresholds.DayEndHour,
	)
	return err
}

func (s *SQLiteProvider) insertRider(tx *sql.Tx, configID int64, rider *RiderData) error {
	// Generate a rider ID if not provided
	if rider.ID == "" {
		rider.ID = uuid.New().String()
	}

	query := `
		INSERT INTO riders (
			id, config_id, name, wind_speed_min, gust_min, wind_speed_max
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := tx.Exec(query,
		rider.ID, configID, rider.Name,
		nullFromFloatPtr(rider.WindSpeedMin),
		nullFromFloatPtr(rider.GustMin),
		nullFromFloatPtr(rider.WindSpeedMax),
	)
	return err
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	query := `
		INSERT INTO controller_configs (
			config_id, controller_type, enabled,
			rest_cert, rest_key, rest_port, rest_listen_addr,
			refresher_interval, refresher_retention_days, refresher_horizon_days
		) VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
	`

	var restCert, restKey, restListenAddr sql.NullString
	var restPort sql.NullInt64
	var refresherInterval sql.NullString
	var retentionDays, horizonDays sql.NullInt64

	if controller.RESTServer != nil {
		restCert = nullString(controller.RESTServer.Cert)
		restKey = nullString(controller.RESTServer.Key)
		restPort = sql.NullInt64{Int64: int64(controller.RESTServer.Port), Valid: controller.RESTServer.Port != 0}
		restListenAddr = nullString(controller.RESTServer.ListenAddr)
	}

	if controller.Refresher != nil {
		refresherInterval = nullString(controller.Refresher.Interval)
		retentionDays = sql.NullInt64{Int64: int64(controller.Refresher.RetentionDays), Valid: controller.Refresher.RetentionDays != 0}
		horizonDays = sql.NullInt64{Int64: int64(controller.Refresher.HorizonDays), Valid: controller.Refresher.HorizonDays != 0}
	}

	_, err := tx.Exec(query, configID, controller.Type,
		restCert, restKey, restPort, restListenAddr,
		refresherInterval, retentionDays, horizonDays,
	)
	return err
}

// Individual spot management methods

// GetSpot retrieves a specific spot by ID
func (s *SQLiteProvider) GetSpot(id string) (*SpotData, error) {
	query := `
		SELECT id, name, latitude, longitude, timezone, daylight_only, enabled
		FROM spots
		WHERE id = ?
	`

	var spot SpotData
	var timezone sql.NullString

	err := s.db.QueryRow(query, id).Scan(
		&spot.ID, &spot.Name, &spot.Latitude, &spot.Longitude,
		&timezone, &spot.DaylightOnly, &spot.Enabled,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("spot %s not found", id)
		}
		return nil, fmt.Errorf("failed to get spot %s: %w", id, err)
	}

	if timezone.Valid {
		spot.Timezone = timezone.String
	}

	return &spot, nil
}

// AddSpot adds a new spot to the configuration
func (s *SQLiteProvider) AddSpot(spot *SpotData) error {
	if spot.ID != "" {
		if _, err := s.GetSpot(spot.ID); err == nil {
			return fmt.Errorf("spot %s already exists", spot.ID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to get config ID: %w", err)
	}

	if err := s.insertSpot(tx, configID, spot); err != nil {
		return fmt.Errorf("failed to insert spot: %w", err)
	}

	return tx.Commit()
}

// UpdateSpot updates an existing spot
func (s *SQLiteProvider) UpdateSpot(id string, spot *SpotData) error {
	if _, err := s.GetSpot(id); err != nil {
		return fmt.Errorf("spot %s not found: %w", id, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE spots SET
			name = ?, latitude = ?, longitude = ?, timezone = ?,
			daylight_only = ?, enabled = ?
		WHERE id = ?
	`

	_, err = tx.Exec(query,
		spot.Name, spot.Latitude, spot.Longitude, nullString(spot.Timezone),
		spot.DaylightOnly, spot.Enabled, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update spot: %w", err)
	}

	spot.ID = id
	return tx.Commit()
}

// DeleteSpot removes a spot from the configuration
func (s *SQLiteProvider) DeleteSpot(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM spots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete spot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("spot %s not found", id)
	}

	return tx.Commit()
}

// Individual rider management methods

// GetRider retrieves a specific rider by ID
func (s *SQLiteProvider) GetRider(id string) (*RiderData, error) {
	query := `
		SELECT id, name, wind_speed_min, gust_min, wind_speed_max
		FROM riders
		WHERE id = ?
	`

	var rider RiderData
	var windSpeedMin, gustMin, windSpeedMax sql.NullFloat64

	err := s.db.QueryRow(query, id).Scan(
		&rider.ID, &rider.Name, &windSpeedMin, &gustMin, &windSpeedMax,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("rider %s not found", id)
		}
		return nil, fmt.Errorf("failed to get rider %s: %w", id, err)
	}

	rider.WindSpeedMin = floatPtrFromNull(windSpeedMin)
	rider.GustMin = floatPtrFromNull(gustMin)
	rider.WindSpeedMax = floatPtrFromNull(windSpeedMax)

	return &rider, nil
}

// AddRider adds a new rider override to the configuration
func (s *SQLiteProvider) AddRider(rider *RiderData) error {
	if rider.ID != "" {
		if _, err := s.GetRider(rider.ID); err == nil {
			return fmt.Errorf("rider %s already exists", rider.ID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to get config ID: %w", err)
	}

	if err := s.insertRider(tx, configID, rider); err != nil {
		return fmt.Errorf("failed to insert rider: %w", err)
	}

	return tx.Commit()
}

// UpdateRider updates an existing rider override
func (s *SQLiteProvider) UpdateRider(id string, rider *RiderData) error {
	if _, err := s.GetRider(id); err != nil {
		return fmt.Errorf("rider %s not found: %w", id, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE riders SET
			name = ?, wind_speed_min = ?, gust_min = ?, wind_speed_max = ?
		WHERE id = ?
	`

	_, err = tx.Exec(query,
		rider.Name,
		nullFromFloatPtr(rider.WindSpeedMin),
		nullFromFloatPtr(rider.GustMin),
		nullFromFloatPtr(rider.WindSpeedMax),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update rider: %w", err)
	}

	rider.ID = id
	return tx.Commit()
}

// DeleteRider removes a rider override from the configuration
func (s *SQLiteProvider) DeleteRider(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM riders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rider: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rider %s not found", id)
	}

	return tx.Commit()
}

// SaveThresholds replaces the default navigability thresholds
func (s *SQLiteProvider) SaveThresholds(thresholds *ThresholdData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.getOrCreateConfigID(tx)
	if err != nil {
		return fmt.Errorf("failed to get config ID: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM thresholds WHERE config_id = ?", configID); err != nil {
		return fmt.Errorf("failed to clear thresholds: %w", err)
	}

	if err := s.insertThresholds(tx, configID, thresholds); err != nil {
		return fmt.Errorf("failed to insert thresholds: %w", err)
	}

	return tx.Commit()
}

// Helper methods

// getConfigID gets the existing config ID
func (s *SQLiteProvider) getConfigID(tx *sql.Tx) (int64, error) {
	var configID int64
	err := tx.QueryRow("SELECT id FROM configs ORDER BY id LIMIT 1").Scan(&configID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("no configuration found")
		}
		return 0, err
	}
	return configID, nil
}

// getOrCreateConfigID gets existing config ID or creates a new one
func (s *SQLiteProvider) getOrCreateConfigID(tx *sql.Tx) (int64, error) {
	configID, err := s.getConfigID(tx)
	if err != nil {
		// Create default config if it doesn't exist
		configID, err = s.insertConfig(tx, "default")
		if err != nil {
			return 0, fmt.Errorf("failed to create default config: %w", err)
		}
	}
	return configID, nil
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFromFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtrFromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
