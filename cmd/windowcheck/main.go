package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/pkg/navigability"
)

// input is one day of hourly samples plus the thresholds to judge them
// against, e.g.:
//
//	{
//	  "config": {"windSpeedMin": 15, "gustMin": 25, "minConsecutiveHours": 2,
//	             "dayStartHour": 7, "dayEndHour": 20},
//	  "samples": [{"hour": 10, "speed": 20, "gust": 30, "direction": 180}]
//	}
type input struct {
	Config  navigability.Config         `json:"config"`
	Samples []navigability.HourlySample `json:"samples"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "", "Path to a JSON day document (default: read from stdin)")
	flag.Parse()

	var data []byte
	var err error
	if file == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	var in input
	if err := json.Unmarshal(data, &in); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing input: %v\n", err)
		os.Exit(1)
	}

	slots, err := navigability.CalculateSlots(in.Samples, in.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error calculating windows: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Navigable windows (%d samples):\n", len(in.Samples))
	if len(slots) == 0 {
		fmt.Println("  none")
		return
	}
	for _, slot := range slots {
		fmt.Printf("  %s\n", forecast.FormatSlot(slot))
	}
}
