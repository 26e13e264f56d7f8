package forecast

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spotwind/spotwind/internal/ingest"
	"github.com/spotwind/spotwind/pkg/navigability"
)

func hours(first, last int, speed, gust, direction float64) []navigability.HourlySample {
	var out []navigability.HourlySample
	for h := first; h <= last; h++ {
		out = append(out, navigability.HourlySample{Hour: h, Speed: speed, Gust: gust, Direction: direction})
	}
	return out
}

func defaultConfig() navigability.Config {
	return navigability.Config{
		WindSpeedMin:        15,
		GustMin:             25,
		MinConsecutiveHours: 2,
		DayStartHour:        7,
		DayEndHour:          20,
	}
}

func TestBuildDayPlans(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	samples := append(hours(7, 9, 8, 12, 170), hours(10, 13, 20, 30, 180)...)
	samples = append(samples, hours(14, 19, 9, 14, 190)...)
	for i := range samples {
		samples[i].SunshineMinutes = 30
	}

	plans, err := BuildDayPlans([]ingest.DaySeries{{Date: date, Samples: samples}}, defaultConfig())
	if err != nil {
		t.Fatalf("BuildDayPlans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}

	plan := plans[0]
	if !plan.Date.Equal(date) {
		t.Errorf("got date %v, want %v", plan.Date, date)
	}
	want := []navigability.Slot{{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 20, AvgGust: 30, Direction: "S"}}
	if !reflect.DeepEqual(plan.Slots, want) {
		t.Errorf("got slots %+v, want %+v", plan.Slots, want)
	}
	if plan.SampleCount != 13 {
		t.Errorf("got sample count %d, want 13", plan.SampleCount)
	}
	if plan.SunshineMinutes != 13*30 {
		t.Errorf("got sunshine %d, want %d", plan.SunshineMinutes, 13*30)
	}
}

func TestBuildDayPlansEmptySlotsNotNil(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	plans, err := BuildDayPlans([]ingest.DaySeries{{Date: date, Samples: hours(8, 18, 5, 8, 180)}}, defaultConfig())
	if err != nil {
		t.Fatalf("BuildDayPlans: %v", err)
	}
	if plans[0].Slots == nil {
		t.Error("calm day should yield an empty slice, not nil")
	}
	if len(plans[0].Slots) != 0 {
		t.Errorf("calm day yielded slots: %+v", plans[0].Slots)
	}
}

func TestBuildDayPlansPropagatesEngineErrors(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	bad := []navigability.HourlySample{{Hour: 25, Speed: 20, Gust: 30, Direction: 180}}

	_, err := BuildDayPlans([]ingest.DaySeries{{Date: date, Samples: bad}}, defaultConfig())
	if err == nil {
		t.Fatal("expected error for invalid sample")
	}
	if !strings.Contains(err.Error(), "2026-06-15") {
		t.Errorf("error should name the day: %v", err)
	}

	var sampleErr *navigability.SampleError
	if !errors.As(err, &sampleErr) {
		t.Errorf("error should wrap a sample error: %v", err)
	}
}

func TestBuildDayPlansDaylightClamp(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	t.Run("pre-dawn wind is excluded", func(t *testing.T) {
		date := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)
		samples := append(hours(5, 6, 20, 30, 180), hours(10, 12, 20, 30, 180)...)
		cfg := defaultConfig()
		cfg.DayStartHour = 0
		cfg.DayEndHour = 24

		plans, err := BuildDayPlans(
			[]ingest.DaySeries{{Date: date, Samples: samples}},
			cfg,
			WithDaylight(36.0143, -5.6044, loc),
		)
		if err != nil {
			t.Fatalf("BuildDayPlans: %v", err)
		}
		want := []navigability.Slot{{StartHour: 10, EndHour: 13, Hours: 3, AvgSpeed: 20, AvgGust: 30, Direction: "S"}}
		if !reflect.DeepEqual(plans[0].Slots, want) {
			t.Errorf("got slots %+v, want %+v", plans[0].Slots, want)
		}
	})

	t.Run("polar night yields a zero-slot plan", func(t *testing.T) {
		date := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)
		samples := hours(8, 18, 25, 35, 180)

		plans, err := BuildDayPlans(
			[]ingest.DaySeries{{Date: date, Samples: samples}},
			defaultConfig(),
			WithDaylight(78.22, 15.65, loc),
		)
		if err != nil {
			t.Fatalf("BuildDayPlans: %v", err)
		}
		if len(plans[0].Slots) != 0 {
			t.Errorf("polar night yielded slots: %+v", plans[0].Slots)
		}
		if plans[0].SampleCount != 11 {
			t.Errorf("got sample count %d, want 11", plans[0].SampleCount)
		}
	})
}

func TestUpcoming(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	mkPlan := func(day int) DayPlan {
		return DayPlan{Date: time.Date(2026, 6, day, 0, 0, 0, 0, loc)}
	}
	plans := []DayPlan{mkPlan(14), mkPlan(15), mkPlan(16)}

	t.Run("afternoon keeps today", func(t *testing.T) {
		today := time.Date(2026, 6, 15, 13, 0, 0, 0, loc)
		got := Upcoming(plans, today)
		if len(got) != 2 || got[0].Date.Day() != 15 || got[1].Date.Day() != 16 {
			t.Errorf("got %d plans starting %v", len(got), got[0].Date)
		}
	})

	t.Run("clock in another zone", func(t *testing.T) {
		// 23:30 UTC on the 14th is already the 15th at UTC+2.
		today := time.Date(2026, 6, 14, 23, 30, 0, 0, time.UTC)
		got := Upcoming(plans, today)
		if len(got) != 2 || got[0].Date.Day() != 15 {
			t.Errorf("got %d plans, want 2 starting on the 15th", len(got))
		}
	})

	t.Run("all in the past", func(t *testing.T) {
		today := time.Date(2026, 7, 1, 0, 0, 0, 0, loc)
		if got := Upcoming(plans, today); len(got) != 0 {
			t.Errorf("got %d plans, want 0", len(got))
		}
	})
}

func TestFirstWithSlots(t *testing.T) {
	slot := navigability.Slot{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 20, AvgGust: 30, Direction: "S"}
	plans := []DayPlan{
		{Date: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC), Slots: []navigability.Slot{slot}},
	}

	got, ok := FirstWithSlots(plans)
	if !ok {
		t.Fatal("expected a plan with slots")
	}
	if got.Date.Day() != 16 {
		t.Errorf("got day %d, want 16", got.Date.Day())
	}

	if _, ok := FirstWithSlots(plans[:1]); ok {
		t.Error("expected no plan with slots")
	}
}

func TestFormatSlot(t *testing.T) {
	tests := []struct {
		slot navigability.Slot
		want string
	}{
		{navigability.Slot{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 18, AvgGust: 28, Direction: "S"}, "18-28 km/h S (10h-14h)"},
		{navigability.Slot{StartHour: 7, EndHour: 9, Hours: 2, AvgSpeed: 22, AvgGust: 35, Direction: "WNW"}, "22-35 km/h WNW (7h-9h)"},
	}
	for _, tt := range tests {
		if got := FormatSlot(tt.slot); got != tt.want {
			t.Errorf("FormatSlot(%+v) = %q, want %q", tt.slot, got, tt.want)
		}
	}
}

func TestComposeDigest(t *testing.T) {
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	plan := DayPlan{
		Date: date,
		Slots: []navigability.Slot{
			{StartHour: 10, EndHour: 14, Hours: 4, AvgSpeed: 18, AvgGust: 28, Direction: "S"},
			{StartHour: 15, EndHour: 18, Hours: 3, AvgSpeed: 20, AvgGust: 30, Direction: "SSW"},
		},
	}
	want := "Tarifa Beach Mon 15 Jun: 18-28 km/h S (10h-14h), 20-30 km/h SSW (15h-18h)"
	if got := ComposeDigest("Tarifa Beach", plan); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	empty := DayPlan{Date: date}
	want = "Tarifa Beach Mon 15 Jun: no navigable windows"
	if got := ComposeDigest("Tarifa Beach", empty); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
