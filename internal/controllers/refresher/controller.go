// Package refresher periodically recomputes navigability plans and prunes
// days that have fallen out of the retention horizon.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/internal/ingest"
	"github.com/spotwind/spotwind/internal/log"
	"github.com/spotwind/spotwind/internal/store"
	"github.com/spotwind/spotwind/pkg/config"
	"go.uber.org/zap"
)

// Defaults when the controller configuration leaves a setting unset.
const (
	defaultInterval      = time.Hour
	defaultRetentionDays = 7
	defaultHorizonDays   = 3
	sourceFetchTimeout   = 30 * time.Second
)

// Controller recomputes plans for every enabled spot on a fixed cadence.
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	Store          *store.MemoryStore

	// Source optionally pulls fresh day series before each recompute. It
	// is nil in the shipped binary; pushed samples are the usual feed.
	Source ingest.SampleSource

	scheduler *gocron.Scheduler
	interval  time.Duration
	retention int
	horizon   int
	logger    *zap.SugaredLogger

	now func() time.Time
}

// NewController creates a new refresher controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RefresherData, st *store.MemoryStore, source ingest.SampleSource, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		Store:          st,
		Source:         source,
		scheduler:      gocron.NewScheduler(time.UTC),
		interval:       defaultInterval,
		retention:      defaultRetentionDays,
		horizon:        defaultHorizonDays,
		logger:         logger,
		now:            time.Now,
	}

	if rc.Interval != "" {
		interval, err := time.ParseDuration(rc.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid refresher interval %q: %v", rc.Interval, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("invalid refresher interval %q: must be positive", rc.Interval)
		}
		ctrl.interval = interval
	}
	if rc.RetentionDays > 0 {
		ctrl.retention = rc.RetentionDays
	}
	if rc.HorizonDays > 0 {
		ctrl.horizon = rc.HorizonDays
	}

	spots, err := configProvider.GetSpots()
	if err != nil {
		return nil, fmt.Errorf("error loading spots: %v", err)
	}
	if len(enabledSpots(spots)) == 0 {
		log.Info("No enabled spots found - refresher will start but remain idle")
	}

	return ctrl, nil
}

// StartController starts the periodic refresh job
func (c *Controller) StartController() error {
	log.Info("Starting refresher controller...")
	log.Infof("Refreshing navigability plans every %v (retention %d days)", c.interval, c.retention)

	if _, err := c.scheduler.Every(c.interval).StartImmediately().Do(c.refresh); err != nil {
		return fmt.Errorf("error scheduling refresh job: %v", err)
	}
	c.scheduler.StartAsync()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		log.Info("Shutting down the refresher...")
		c.scheduler.Stop()
	}()

	return nil
}

// refresh runs one full pass: optional upstream pull, plan recompute for
// every enabled spot, then retention pruning.
func (c *Controller) refresh() {
	spots, err := c.configProvider.GetSpots()
	if err != nil {
		log.Errorf("refresher: error loading spots: %v", err)
		return
	}

	enabled := enabledSpots(spots)
	if len(enabled) == 0 {
		log.Debug("refresher idle: no enabled spots")
		return
	}

	thresholds, err := c.configProvider.GetThresholds()
	if err != nil {
		log.Errorf("refresher: error loading thresholds: %v", err)
		return
	}

	for i := range enabled {
		spot := &enabled[i]

		if c.Source != nil {
			c.pullSamples(spot)
		}

		days, err := c.Store.DaySeries(spot.ID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.Errorf("refresher: error reading series for spot %s: %v", spot.ID, err)
			}
			continue
		}

		loc, err := spot.Location()
		if err != nil {
			log.Errorf("refresher: spot %s has an invalid timezone: %v", spot.ID, err)
			continue
		}

		plans, err := forecast.BuildDayPlans(days, thresholds.Config(), forecast.SpotOptions(*spot, loc)...)
		if err != nil {
			log.Errorf("refresher: error computing plans for spot %s: %v", spot.ID, err)
			continue
		}
		c.Store.SetPlans(spot.ID, plans)
	}

	cutoff := c.now().AddDate(0, 0, -c.retention)
	c.Store.Prune(cutoff)

	log.Debugf("refresher: completed pass over %d spot(s)", len(enabled))
}

// pullSamples fetches fresh day series from the configured source and
// merges them into the store.
func (c *Controller) pullSamples(spot *config.SpotData) {
	ctx, cancel := context.WithTimeout(c.ctx, sourceFetchTimeout)
	defer cancel()

	days, err := c.Source.DaySeries(ctx, spot.ID, c.horizon)
	if err != nil {
		log.Errorf("refresher: error pulling samples for spot %s: %v", spot.ID, err)
		return
	}
	c.Store.UpsertDaySeries(spot.ID, days)
}

func enabledSpots(spots []config.SpotData) []config.SpotData {
	var out []config.SpotData
	for _, s := range spots {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
