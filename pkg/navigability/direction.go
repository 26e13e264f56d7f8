package navigability

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

var compassPoints = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// AverageDirection returns the circular mean of the given wind directions,
// rounded to the nearest whole degree in [0,360). A simple arithmetic mean
// is wrong for angles (350° and 10° average to 180° instead of 0°), so the
// directions are averaged as unit vectors. Opposing directions that cancel
// exactly yield 0. An empty slice yields 0.
func AverageDirection(degrees []float64) float64 {
	if len(degrees) == 0 {
		return 0
	}

	rad := make([]float64, len(degrees))
	for i, d := range degrees {
		rad[i] = d * math.Pi / 180.0
	}

	mean := stat.CircularMean(rad, nil) * 180.0 / math.Pi
	if mean < 0 {
		mean += 360.0
	}

	deg := math.Round(mean)
	if deg >= 360.0 {
		deg -= 360.0
	}
	return deg
}

// CompassPoint converts a wind direction to one of the sixteen compass
// point labels. The input may be any finite angle; it is normalized into
// [0,360) first, so 359.9° and -0.1° both land on "N".
func CompassPoint(degrees float64) string {
	d := math.Mod(degrees, 360.0)
	if d < 0 {
		d += 360.0
	}
	return compassPoints[int((d+11.25)/22.5)%16]
}
