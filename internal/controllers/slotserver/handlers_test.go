package slotserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spotwind/spotwind/internal/store"
	"github.com/spotwind/spotwind/pkg/config"
	"github.com/spotwind/spotwind/pkg/navigability"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type testProvider struct {
	spots      []config.SpotData
	thresholds config.ThresholdData
	riders     []config.RiderData
}

func (p *testProvider) LoadConfig() (*config.ConfigData, error) {
	return &config.ConfigData{Spots: p.spots, Thresholds: p.thresholds, Riders: p.riders}, nil
}
func (p *testProvider) GetSpots() ([]config.SpotData, error)             { return p.spots, nil }
func (p *testProvider) GetThresholds() (*config.ThresholdData, error)    { return &p.thresholds, nil }
func (p *testProvider) GetRiders() ([]config.RiderData, error)           { return p.riders, nil }
func (p *testProvider) GetControllers() ([]config.ControllerData, error) { return nil, nil }
func (p *testProvider) IsReadOnly() bool                                 { return true }
func (p *testProvider) Close() error                                     { return nil }

func floatPtr(v float64) *float64 { return &v }

func newTestProvider() *testProvider {
	return &testProvider{
		spots: []config.SpotData{
			{ID: "tarifa", Name: "Tarifa Beach", Latitude: 36.0143, Longitude: -5.6044, Enabled: true},
			{ID: "closed", Name: "Closed Spot", Latitude: 0, Longitude: 0, Enabled: false},
		},
		thresholds: config.ThresholdData{
			WindSpeedMin:        15,
			GustMin:             25,
			MinConsecutiveHours: 2,
			DayStartHour:        7,
			DayEndHour:          20,
		},
		riders: []config.RiderData{
			{ID: "pro", Name: "Pro", WindSpeedMin: floatPtr(25)},
		},
	}
}

func newTestController(t *testing.T) *Controller {
	t.Helper()

	var wg sync.WaitGroup
	ctrl, err := NewController(
		context.Background(),
		&wg,
		newTestProvider(),
		config.RESTServerData{Port: 8080, ListenAddr: "127.0.0.1"},
		store.NewMemoryStore(),
		zap.NewNop().Sugar(),
	)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	// Fix the clock: the morning of the test data's first day.
	ctrl.now = func() time.Time {
		return time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)
	}
	return ctrl
}

func doRequest(ctrl *Controller, method, target string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rr, req)
	return rr
}

// sampleBody builds a push payload with one windy run (10h-13h at 20/30
// km/h from the south) inside an otherwise calm 7h-19h day, repeated for
// each given date.
func sampleBody(t *testing.T, dates ...time.Time) []byte {
	t.Helper()

	var reqBody SamplesRequest
	for _, date := range dates {
		for h := 7; h <= 19; h++ {
			ts := date.Add(time.Duration(h) * time.Hour)
			speed, gust := 8.0, 12.0
			if h >= 10 && h <= 13 {
				speed, gust = 20.0, 30.0
			}
			reqBody.Speed = append(reqBody.Speed, SamplePoint{Time: ts, Value: floatPtr(speed)})
			reqBody.Gust = append(reqBody.Gust, SamplePoint{Time: ts, Value: floatPtr(gust)})
			reqBody.Direction = append(reqBody.Direction, SamplePoint{Time: ts, Value: floatPtr(180)})
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshaling sample body: %v", err)
	}
	return body
}

func pushSamples(t *testing.T, ctrl *Controller, dates ...time.Time) {
	t.Helper()
	rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", sampleBody(t, dates...))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("push: got status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetSpots(t *testing.T) {
	ctrl := newTestController(t)

	rr := doRequest(ctrl, http.MethodGet, "/spots", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}

	var spots []config.SpotData
	if err := json.Unmarshal(rr.Body.Bytes(), &spots); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(spots) != 1 || spots[0].ID != "tarifa" {
		t.Errorf("got spots %+v, want only the enabled spot", spots)
	}
}

func TestPostSamplesAndGetWindows(t *testing.T) {
	ctrl := newTestController(t)
	day := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", sampleBody(t, day))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}
	var ack SamplesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decoding ack: %v", err)
	}
	if ack.Status != "accepted" || ack.Days != 1 {
		t.Errorf("got ack %+v, want accepted/1", ack)
	}

	rr = doRequest(ctrl, http.MethodGet, "/spots/tarifa/windows?days=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}

	var resp WindowsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SpotID != "tarifa" || resp.SpotName != "Tarifa Beach" {
		t.Errorf("unexpected spot fields: %+v", resp)
	}
	if len(resp.Days) != 1 {
		t.Fatalf("got %d days, want 1", len(resp.Days))
	}

	plan := resp.Days[0]
	if plan.SampleCount != 13 {
		t.Errorf("got sample count %d, want 13", plan.SampleCount)
	}
	want := navigability.Slot{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 20, AvgGust: 30, Direction: "S"}
	if len(plan.Slots) != 1 || plan.Slots[0] != want {
		t.Errorf("got slots %+v, want [%+v]", plan.Slots, want)
	}
}

func TestGetWindowsDaysLimit(t *testing.T) {
	ctrl := newTestController(t)
	pushSamples(t, ctrl,
		time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
	)

	rr := doRequest(ctrl, http.MethodGet, "/spots/tarifa/windows?days=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}
	var resp WindowsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Days) != 1 {
		t.Fatalf("got %d days, want 1", len(resp.Days))
	}
	if resp.Days[0].Date.Day() != 15 {
		t.Errorf("got first day %v, want the 15th", resp.Days[0].Date)
	}
}

func TestGetWindowsRiderOverride(t *testing.T) {
	ctrl := newTestController(t)
	pushSamples(t, ctrl, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))

	// The pro rider needs 25 km/h; the pushed day peaks at 20.
	rr := doRequest(ctrl, http.MethodGet, "/spots/tarifa/windows?rider=pro", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}
	var resp WindowsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Rider != "pro" {
		t.Errorf("got rider %q, want pro", resp.Rider)
	}
	if len(resp.Days) != 1 || len(resp.Days[0].Slots) != 0 {
		t.Errorf("pro rider should see no slots, got %+v", resp.Days)
	}

	// An unknown rider falls back to the defaults and sees the slot.
	rr = doRequest(ctrl, http.MethodGet, "/spots/tarifa/windows?rider=nobody", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Days) != 1 || len(resp.Days[0].Slots) != 1 {
		t.Errorf("unknown rider should see the default slots, got %+v", resp.Days)
	}
}

func TestGetWindowsValidation(t *testing.T) {
	ctrl := newTestController(t)
	pushSamples(t, ctrl, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))

	for _, target := range []string{
		"/spots/tarifa/windows?days=0",
		"/spots/tarifa/windows?days=17",
		"/spots/tarifa/windows?days=soon",
	} {
		rr := doRequest(ctrl, http.MethodGet, target, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want 400", target, rr.Code)
		}
	}
}

func TestGetWindowsNoData(t *testing.T) {
	ctrl := newTestController(t)
	rr := doRequest(ctrl, http.MethodGet, "/spots/tarifa/windows", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rr.Code)
	}
}

func TestUnknownSpot(t *testing.T) {
	ctrl := newTestController(t)

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/spots/nowhere/windows"},
		{http.MethodGet, "/spots/nowhere/digest"},
		{http.MethodPost, "/spots/nowhere/samples"},
		{http.MethodGet, "/spots/closed/windows"}, // disabled spots are invisible
	} {
		rr := doRequest(ctrl, tc.method, tc.target, []byte("{}"))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: got status %d, want 404", tc.method, tc.target, rr.Code)
		}
	}
}

func TestPostSamplesValidation(t *testing.T) {
	ctrl := newTestController(t)

	t.Run("malformed body", func(t *testing.T) {
		rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", []byte("{not json"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rr.Code)
		}
	})

	t.Run("missing series", func(t *testing.T) {
		body := []byte(`{"speed": [{"time": "2026-06-15T10:00:00Z", "value": 20}]}`)
		rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid samples") {
			t.Errorf("unexpected error body: %s", rr.Body.String())
		}
	})

	t.Run("negative speed", func(t *testing.T) {
		body := []byte(`{
			"speed": [{"time": "2026-06-15T10:00:00Z", "value": -4}],
			"gust": [{"time": "2026-06-15T10:00:00Z", "value": 30}],
			"direction": [{"time": "2026-06-15T10:00:00Z", "value": 180}]
		}`)
		rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rr.Code)
		}
	})

	t.Run("all values null", func(t *testing.T) {
		body := []byte(`{
			"speed": [{"time": "2026-06-15T10:00:00Z", "value": null}],
			"gust": [{"time": "2026-06-15T10:00:00Z", "value": 30}],
			"direction": [{"time": "2026-06-15T10:00:00Z", "value": 180}]
		}`)
		rr := doRequest(ctrl, http.MethodPost, "/spots/tarifa/samples", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rr.Code)
		}
	})
}

func TestGetDigest(t *testing.T) {
	ctrl := newTestController(t)
	pushSamples(t, ctrl, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))

	rr := doRequest(ctrl, http.MethodGet, "/spots/tarifa/digest", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rr.Code, rr.Body.String())
	}

	var resp DigestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Date != "2026-06-15" {
		t.Errorf("got date %q, want 2026-06-15", resp.Date)
	}
	want := "Tarifa Beach Mon 15 Jun: 20-30 km/h S (10h-14h)"
	if resp.Text != want {
		t.Errorf("got text %q, want %q", resp.Text, want)
	}

	// The pro rider has no navigable windows, so there is nothing to push.
	rr = doRequest(ctrl, http.MethodGet, "/spots/tarifa/digest?rider=pro", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rr.Code)
	}
}

func TestGetHealth(t *testing.T) {
	ctrl := newTestController(t)

	rr := doRequest(ctrl, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestMsgpackResponseFormat(t *testing.T) {
	ctrl := newTestController(t)

	rr := doRequest(ctrl, http.MethodGet, "/health?format=msgpack", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Fatalf("got content type %q", ct)
	}

	var body map[string]string
	if err := msgpack.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding msgpack response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestNewControllerRequiresEnabledSpots(t *testing.T) {
	provider := newTestProvider()
	for i := range provider.spots {
		provider.spots[i].Enabled = false
	}

	var wg sync.WaitGroup
	_, err := NewController(
		context.Background(),
		&wg,
		provider,
		config.RESTServerData{},
		store.NewMemoryStore(),
		zap.NewNop().Sugar(),
	)
	if err == nil {
		t.Fatal("expected error with no enabled spots")
	}
}
