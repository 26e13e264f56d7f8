package slotserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/internal/log"
	"github.com/spotwind/spotwind/internal/store"
	"github.com/spotwind/spotwind/pkg/config"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	Store          *store.MemoryStore
	Spots          []config.SpotData
	SpotsByID      map[string]*config.SpotData
	logger         *zap.SugaredLogger
	handlers       *Handlers

	// now is the clock used to decide which days are upcoming. Tests
	// replace it.
	now func() time.Time
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RESTServerData, st *store.MemoryStore, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		restConfig:     rc,
		Store:          st,
		logger:         logger,
		now:            time.Now,
	}

	spots, err := configProvider.GetSpots()
	if err != nil {
		return nil, fmt.Errorf("error loading spots: %v", err)
	}

	for i := range spots {
		if !spots[i].Enabled {
			continue
		}
		// Resolve the timezone once so a bad zone name fails at startup
		// instead of on the first request.
		if _, err := spots[i].Location(); err != nil {
			return nil, fmt.Errorf("spot %s has an invalid timezone: %v", spots[i].Name, err)
		}
		ctrl.Spots = append(ctrl.Spots, spots[i])
	}

	if len(ctrl.Spots) == 0 {
		return nil, fmt.Errorf("no enabled spots configured - at least one spot must be configured for the REST server")
	}

	ctrl.SpotsByID = make(map[string]*config.SpotData)
	for i := range ctrl.Spots {
		ctrl.SpotsByID[ctrl.Spots[i].ID] = &ctrl.Spots[i]
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	// Log every request through the shared access-log middleware
	router.Use(log.HTTPMiddleware)

	router.HandleFunc("/spots", c.handlers.GetSpots).Methods(http.MethodGet)
	router.HandleFunc("/spots/{spot}/samples", c.handlers.PostSamples).Methods(http.MethodPost)
	router.HandleFunc("/spots/{spot}/windows", c.handlers.GetWindows).Methods(http.MethodGet)
	router.HandleFunc("/spots/{spot}/digest", c.handlers.GetDigest).Methods(http.MethodGet)
	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)

	return router
}

// spot resolves a configured, enabled spot by ID.
func (c *Controller) spot(id string) (*config.SpotData, bool) {
	spot, ok := c.SpotsByID[id]
	return spot, ok
}

// rebuildPlans recomputes the spot's default-threshold plans from its full
// stored series. Thresholds are re-read so edits in a writable config
// backend take effect without a restart.
func (c *Controller) rebuildPlans(spot *config.SpotData) error {
	thresholds, err := c.configProvider.GetThresholds()
	if err != nil {
		return fmt.Errorf("loading thresholds: %w", err)
	}

	days, err := c.Store.DaySeries(spot.ID)
	if err != nil {
		return fmt.Errorf("loading stored series: %w", err)
	}

	loc, err := spot.Location()
	if err != nil {
		return fmt.Errorf("resolving spot timezone: %w", err)
	}

	plans, err := forecast.BuildDayPlans(days, thresholds.Config(), forecast.SpotOptions(*spot, loc)...)
	if err != nil {
		return err
	}

	c.Store.SetPlans(spot.ID, plans)
	return nil
}
