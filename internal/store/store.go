// Package store keeps the latest received day series and computed plans
// per spot for the lifetime of the process. It is not persistence: restart
// starts empty.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/internal/ingest"
)

// ErrNotFound is returned when a spot has no stored data.
var ErrNotFound = errors.New("spot not found")

// MemoryStore is a concurrency-safe latest-state store keyed by spot ID.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string][]ingest.DaySeries
	plans  map[string][]forecast.DayPlan
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series: make(map[string][]ingest.DaySeries),
		plans:  make(map[string][]forecast.DayPlan),
	}
}

// UpsertDaySeries merges the given days into the spot's stored series. A
// day replaces a stored day with the same local date; other stored days are
// kept. The result stays date-ascending.
func (m *MemoryStore) UpsertDaySeries(spotID string, days []ingest.DaySeries) {
	if len(days) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byDate := make(map[string]ingest.DaySeries)
	for _, d := range m.series[spotID] {
		byDate[d.Date.Format("2006-01-02")] = d
	}
	for _, d := range days {
		byDate[d.Date.Format("2006-01-02")] = d
	}

	merged := make([]ingest.DaySeries, 0, len(byDate))
	for _, d := range byDate {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	m.series[spotID] = merged
}

// DaySeries returns a copy of the spot's stored day series.
func (m *MemoryStore) DaySeries(spotID string) ([]ingest.DaySeries, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	days, ok := m.series[spotID]
	if !ok || len(days) == 0 {
		return nil, ErrNotFound
	}
	out := make([]ingest.DaySeries, len(days))
	copy(out, days)
	return out, nil
}

// SetPlans replaces the spot's computed default plans.
func (m *MemoryStore) SetPlans(spotID string, plans []forecast.DayPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]forecast.DayPlan, len(plans))
	copy(out, plans)
	m.plans[spotID] = out
}

// Plans returns a copy of the spot's computed default plans.
func (m *MemoryStore) Plans(spotID string) ([]forecast.DayPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans, ok := m.plans[spotID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]forecast.DayPlan, len(plans))
	copy(out, plans)
	return out, nil
}

// SpotIDs returns the IDs of all spots with stored series, sorted.
func (m *MemoryStore) SpotIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.series))
	for id := range m.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Prune drops stored days and plans dated before the given instant. Spots
// left with no data are removed entirely.
func (m *MemoryStore) Prune(before time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, days := range m.series {
		kept := days[:0]
		for _, d := range days {
			if !d.Date.Before(before) {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(m.series, id)
			continue
		}
		m.series[id] = kept
	}

	for id, plans := range m.plans {
		kept := plans[:0]
		for _, p := range plans {
			if !p.Date.Before(before) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(m.plans, id)
			continue
		}
		m.plans[id] = kept
	}
}
