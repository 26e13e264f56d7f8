package slotserver

import (
	"math"
	"time"

	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/internal/ingest"
)

// SamplePoint is one observation in a pushed parameter series. A null value
// marks a missing observation.
type SamplePoint struct {
	Time  time.Time `json:"time" validate:"required"`
	Value *float64  `json:"value"`
}

// SamplesRequest is the POST /spots/{spot}/samples body: the raw
// per-parameter series on the UTC time axis. Sunshine is optional.
type SamplesRequest struct {
	Speed     []SamplePoint `json:"speed" validate:"required,min=1,dive"`
	Gust      []SamplePoint `json:"gust" validate:"required,min=1,dive"`
	Direction []SamplePoint `json:"direction" validate:"required,min=1,dive"`
	Sunshine  []SamplePoint `json:"sunshine,omitempty" validate:"omitempty,dive"`
}

// SamplesResponse acknowledges a samples push.
type SamplesResponse struct {
	Status string `json:"status"`
	Days   int    `json:"days"`
}

// WindowsResponse is the GET /spots/{spot}/windows payload.
type WindowsResponse struct {
	SpotID   string             `json:"spotId"`
	SpotName string             `json:"spotName"`
	Rider    string             `json:"rider,omitempty"`
	Days     []forecast.DayPlan `json:"days"`
}

// DigestResponse is the GET /spots/{spot}/digest payload: the delivery text
// for the next day with navigable windows.
type DigestResponse struct {
	SpotID string `json:"spotId"`
	Rider  string `json:"rider,omitempty"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

// toSeries converts pushed points to an ingest series, mapping null values
// to NaN so the merge treats them as missing.
func toSeries(points []SamplePoint) ingest.Series {
	s := make(ingest.Series, 0, len(points))
	for _, p := range points {
		v := math.NaN()
		if p.Value != nil {
			v = *p.Value
		}
		s = append(s, ingest.Point{Time: p.Time, Value: v})
	}
	return s
}
