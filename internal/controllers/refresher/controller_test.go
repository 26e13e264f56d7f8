package refresher

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spotwind/spotwind/internal/ingest"
	"github.com/spotwind/spotwind/internal/store"
	"github.com/spotwind/spotwind/pkg/config"
	"github.com/spotwind/spotwind/pkg/navigability"
)

type testProvider struct {
	spots      []config.SpotData
	thresholds config.ThresholdData
}

func (p *testProvider) LoadConfig() (*config.ConfigData, error) {
	return &config.ConfigData{Spots: p.spots, Thresholds: p.thresholds}, nil
}

func (p *testProvider) GetSpots() ([]config.SpotData, error) { return p.spots, nil }

func (p *testProvider) GetThresholds() (*config.ThresholdData, error) {
	th := p.thresholds
	return &th, nil
}

func (p *testProvider) GetRiders() ([]config.RiderData, error)           { return nil, nil }
func (p *testProvider) GetControllers() ([]config.ControllerData, error) { return nil, nil }
func (p *testProvider) IsReadOnly() bool                                 { return true }
func (p *testProvider) Close() error                                     { return nil }

type stubSource struct {
	days    []ingest.DaySeries
	calls   int
	spotID  string
	horizon int
}

func (s *stubSource) DaySeries(_ context.Context, spotID string, days int) ([]ingest.DaySeries, error) {
	s.calls++
	s.spotID = spotID
	s.horizon = days
	return s.days, nil
}

func newTestProvider() *testProvider {
	return &testProvider{
		spots: []config.SpotData{
			{ID: "tarifa", Name: "Tarifa Beach", Latitude: 36.0143, Longitude: -5.6044, Enabled: true},
			{ID: "closed", Name: "Closed Spot", Enabled: false},
		},
		thresholds: config.ThresholdData{
			WindSpeedMin:        15,
			GustMin:             25,
			MinConsecutiveHours: 2,
			DayStartHour:        7,
			DayEndHour:          20,
		},
	}
}

func newTestController(t *testing.T, provider config.ConfigProvider, rc config.RefresherData, source ingest.SampleSource) *Controller {
	t.Helper()
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, provider, rc, store.NewMemoryStore(), source, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ctrl.now = func() time.Time { return time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC) }
	return ctrl
}

func windyDay(date time.Time) ingest.DaySeries {
	day := ingest.DaySeries{Date: date}
	for hour := 10; hour < 14; hour++ {
		day.Samples = append(day.Samples, navigability.HourlySample{
			Hour: hour, Speed: 20, Gust: 30, Direction: 180, DirectionLabel: "S",
		})
	}
	return day
}

func TestRefreshRecomputesPlans(t *testing.T) {
	provider := newTestProvider()
	ctrl := newTestController(t, provider, config.RefresherData{}, nil)

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	ctrl.Store.UpsertDaySeries("tarifa", []ingest.DaySeries{windyDay(date)})

	ctrl.refresh()

	plans, err := ctrl.Store.Plans("tarifa")
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	want := []navigability.Slot{{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 20, AvgGust: 30, Direction: "S"}}
	if !reflect.DeepEqual(plans[0].Slots, want) {
		t.Errorf("got slots %+v, want %+v", plans[0].Slots, want)
	}

	// Tightening the thresholds must take effect on the next pass without
	// a restart.
	provider.thresholds.WindSpeedMin = 30
	ctrl.refresh()

	plans, err = ctrl.Store.Plans("tarifa")
	if err != nil {
		t.Fatalf("Plans after threshold change: %v", err)
	}
	if len(plans[0].Slots) != 0 {
		t.Errorf("got slots %+v after tightening thresholds, want none", plans[0].Slots)
	}
}

func TestRefreshPullsFromSource(t *testing.T) {
	date := time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
	source := &stubSource{days: []ingest.DaySeries{windyDay(date)}}
	ctrl := newTestController(t, newTestProvider(), config.RefresherData{HorizonDays: 5}, source)

	ctrl.refresh()

	if source.calls != 1 {
		t.Fatalf("got %d source calls, want 1", source.calls)
	}
	if source.spotID != "tarifa" {
		t.Errorf("got spot %q, want tarifa", source.spotID)
	}
	if source.horizon != 5 {
		t.Errorf("got horizon %d, want 5", source.horizon)
	}

	plans, err := ctrl.Store.Plans("tarifa")
	if err != nil {
		t.Fatalf("Plans: %v", err)
	}
	if len(plans) != 1 || len(plans[0].Slots) != 1 {
		t.Fatalf("got plans %+v, want one plan with one slot", plans)
	}
}

func TestRefreshPrunesOldDays(t *testing.T) {
	ctrl := newTestController(t, newTestProvider(), config.RefresherData{RetentionDays: 7}, nil)

	old := windyDay(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	recent := windyDay(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC))
	ctrl.Store.UpsertDaySeries("tarifa", []ingest.DaySeries{old, recent})

	ctrl.refresh()

	days, err := ctrl.Store.DaySeries("tarifa")
	if err != nil {
		t.Fatalf("DaySeries: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days after prune, want 1", len(days))
	}
	if !days[0].Date.Equal(recent.Date) {
		t.Errorf("got date %v, want %v", days[0].Date, recent.Date)
	}
}

func TestRefreshIdleWithoutSpots(t *testing.T) {
	provider := &testProvider{}
	ctrl := newTestController(t, provider, config.RefresherData{}, nil)

	ctrl.refresh()

	if _, err := ctrl.Store.Plans("tarifa"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestNewControllerIntervalParsing(t *testing.T) {
	provider := newTestProvider()
	wg := &sync.WaitGroup{}

	ctrl, err := NewController(context.Background(), wg, provider, config.RefresherData{Interval: "30m"}, store.NewMemoryStore(), nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if ctrl.interval != 30*time.Minute {
		t.Errorf("got interval %v, want 30m", ctrl.interval)
	}

	ctrl, err = NewController(context.Background(), wg, provider, config.RefresherData{}, store.NewMemoryStore(), nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController with defaults: %v", err)
	}
	if ctrl.interval != defaultInterval {
		t.Errorf("got interval %v, want %v", ctrl.interval, defaultInterval)
	}
	if ctrl.retention != defaultRetentionDays {
		t.Errorf("got retention %d, want %d", ctrl.retention, defaultRetentionDays)
	}
	if ctrl.horizon != defaultHorizonDays {
		t.Errorf("got horizon %d, want %d", ctrl.horizon, defaultHorizonDays)
	}

	if _, err := NewController(context.Background(), wg, provider, config.RefresherData{Interval: "soon"}, store.NewMemoryStore(), nil, zap.NewNop().Sugar()); err == nil {
		t.Error("expected error for unparseable interval")
	}
	if _, err := NewController(context.Background(), wg, provider, config.RefresherData{Interval: "-1h"}, store.NewMemoryStore(), nil, zap.NewNop().Sugar()); err == nil {
		t.Error("expected error for negative interval")
	}
}
