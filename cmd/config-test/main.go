package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/spotwind/spotwind/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	yamlConfig, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	// Load SQLite configuration
	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	// Compare configurations
	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	// Compare spots by name; the SQLite backend orders rows by name and
	// generates IDs for spots the YAML left without one
	fmt.Printf("Spots - YAML: %d, SQLite: %d\n", len(yamlConfig.Spots), len(sqliteConfig.Spots))
	if len(yamlConfig.Spots) == len(sqliteConfig.Spots) {
		fmt.Println("✓ Spot count matches")
		sqliteSpots := make(map[string]config.SpotData, len(sqliteConfig.Spots))
		for _, spot := range sqliteConfig.Spots {
			sqliteSpots[spot.Name] = spot
		}
		for _, yamlSpot := range yamlConfig.Spots {
			sqliteSpot, ok := sqliteSpots[yamlSpot.Name]
			if !ok {
				fmt.Printf("✗ Spot %s missing from SQLite\n", yamlSpot.Name)
				continue
			}
			if compareSpots(yamlSpot, sqliteSpot) {
				fmt.Printf("✓ Spot %s matches\n", yamlSpot.Name)
			} else {
				fmt.Printf("✗ Spot %s differs\n", yamlSpot.Name)
				printSpotDiff(yamlSpot, sqliteSpot)
			}
		}
	} else {
		fmt.Println("✗ Spot count mismatch")
	}

	// Compare thresholds
	fmt.Println("\nThresholds:")
	if compareThresholds(yamlConfig.Thresholds, sqliteConfig.Thresholds) {
		fmt.Println("✓ Thresholds match")
	} else {
		fmt.Println("✗ Thresholds differ")
	}

	// Compare riders
	fmt.Printf("\nRiders - YAML: %d, SQLite: %d\n", len(yamlConfig.Riders), len(sqliteConfig.Riders))
	if len(yamlConfig.Riders) == len(sqliteConfig.Riders) {
		fmt.Println("✓ Rider count matches")
		sqliteRiders := make(map[string]config.RiderData, len(sqliteConfig.Riders))
		for _, rider := range sqliteConfig.Riders {
			sqliteRiders[rider.Name] = rider
		}
		for _, yamlRider := range yamlConfig.Riders {
			sqliteRider, ok := sqliteRiders[yamlRider.Name]
			if !ok {
				fmt.Printf("✗ Rider %s missing from SQLite\n", yamlRider.Name)
				continue
			}
			if compareRiders(yamlRider, sqliteRider) {
				fmt.Printf("✓ Rider %s matches\n", yamlRider.Name)
			} else {
				fmt.Printf("✗ Rider %s differs\n", yamlRider.Name)
			}
		}
	} else {
		fmt.Println("✗ Rider count mismatch")
	}

	// Compare controllers by type; the SQLite backend orders rows by
	// controller type, not by the YAML file's order
	fmt.Printf("\nControllers - YAML: %d, SQLite: %d\n", len(yamlConfig.Controllers), len(sqliteConfig.Controllers))
	if len(yamlConfig.Controllers) == len(sqliteConfig.Controllers) {
		fmt.Println("✓ Controller count matches")
		sqliteControllers := make(map[string]config.ControllerData, len(sqliteConfig.Controllers))
		for _, controller := range sqliteConfig.Controllers {
			sqliteControllers[controller.Type] = controller
		}
		for _, yamlController := range yamlConfig.Controllers {
			sqliteController, ok := sqliteControllers[yamlController.Type]
			if !ok {
				fmt.Printf("✗ Controller %s missing from SQLite\n", yamlController.Type)
				continue
			}
			if compareControllers(yamlController, sqliteController) {
				fmt.Printf("✓ Controller %s matches\n", yamlController.Type)
			} else {
				fmt.Printf("✗ Controller %s differs\n", yamlController.Type)
			}
		}
	} else {
		fmt.Println("✗ Controller count mismatch")
	}

	fmt.Println("\nTest completed!")
}

// compareSpots ignores IDs, which the SQLite backend generates on insert.
func compareSpots(yaml, sqlite config.SpotData) bool {
	tolerance := 0.000001
	return yaml.Name == sqlite.Name &&
		abs(yaml.Latitude-sqlite.Latitude) < tolerance &&
		abs(yaml.Longitude-sqlite.Longitude) < tolerance &&
		yaml.Timezone == sqlite.Timezone &&
		yaml.DaylightOnly == sqlite.DaylightOnly &&
		yaml.Enabled == sqlite.Enabled
}

func compareThresholds(yaml, sqlite config.ThresholdData) bool {
	tolerance := 0.000001
	if abs(yaml.WindSpeedMin-sqlite.WindSpeedMin) >= tolerance ||
		abs(yaml.GustMin-sqlite.GustMin) >= tolerance {
		return false
	}
	if (yaml.WindSpeedMax == nil) != (sqlite.WindSpeedMax == nil) {
		return false
	}
	if yaml.WindSpeedMax != nil && abs(*yaml.WindSpeedMax-*sqlite.WindSpeedMax) >= tolerance {
		return false
	}
	return yaml.MinConsecutiveHours == sqlite.MinConsecutiveHours &&
		yaml.DayStartHour == sqlite.DayStartHour &&
		yaml.DayEndHour == sqlite.DayEndHour
}

// compareRiders ignores IDs for the same reason as compareSpots.
func compareRiders(yaml, sqlite config.RiderData) bool {
	yaml.ID = ""
	sqlite.ID = ""
	return reflect.DeepEqual(yaml, sqlite)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func printSpotDiff(yaml, sqlite config.SpotData) {
	if yaml.Timezone != sqlite.Timezone {
		fmt.Printf("  Timezone: YAML='%s', SQLite='%s'\n", yaml.Timezone, sqlite.Timezone)
	}
	if yaml.DaylightOnly != sqlite.DaylightOnly {
		fmt.Printf("  DaylightOnly: YAML=%t, SQLite=%t\n", yaml.DaylightOnly, sqlite.DaylightOnly)
	}
	if yaml.Enabled != sqlite.Enabled {
		fmt.Printf("  Enabled: YAML=%t, SQLite=%t\n", yaml.Enabled, sqlite.Enabled)
	}
	if yaml.Latitude != sqlite.Latitude || yaml.Longitude != sqlite.Longitude {
		fmt.Printf("  Coordinates: YAML=(%f, %f), SQLite=(%f, %f)\n",
			yaml.Latitude, yaml.Longitude, sqlite.Latitude, sqlite.Longitude)
	}
}

func compareControllers(yaml, sqlite config.ControllerData) bool {
	if yaml.Type != sqlite.Type {
		return false
	}

	if (yaml.RESTServer == nil) != (sqlite.RESTServer == nil) {
		return false
	}
	if yaml.RESTServer != nil && !reflect.DeepEqual(*yaml.RESTServer, *sqlite.RESTServer) {
		return false
	}

	if (yaml.Refresher == nil) != (sqlite.Refresher == nil) {
		return false
	}
	if yaml.Refresher != nil && !reflect.DeepEqual(*yaml.Refresher, *sqlite.Refresher) {
		return false
	}

	return true
}
