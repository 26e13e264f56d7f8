package slotserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/spotwind/spotwind/internal/constants"
	"github.com/spotwind/spotwind/internal/forecast"
	"github.com/spotwind/spotwind/internal/ingest"
	"github.com/spotwind/spotwind/internal/log"
	"github.com/spotwind/spotwind/pkg/config"
	"github.com/spotwind/spotwind/pkg/responseformat"
)

// defaultForecastDays is the windows horizon when the request does not pass
// a days parameter.
const defaultForecastDays = 3

var noCacheHeaders = map[string]string{
	"Cache-Control": "no-cache, no-store, must-revalidate",
}

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	validate   *validator.Validate
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		validate:   validator.New(),
	}
}

// spotFromRequest resolves the {spot} path variable, writing a 404 when the
// spot is not configured or not enabled.
func (h *Handlers) spotFromRequest(w http.ResponseWriter, req *http.Request) (*config.SpotData, bool) {
	spot, ok := h.controller.spot(mux.Vars(req)["spot"])
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "spot not found")
		return nil, false
	}
	return spot, true
}

// GetSpots handles requests for the configured spots
func (h *Handlers) GetSpots(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteResponse(w, req, h.controller.Spots, nil); err != nil {
		log.Errorf("error encoding spots: %v", err)
	}
}

// PostSamples handles pushed wind sample series for a spot
func (h *Handlers) PostSamples(w http.ResponseWriter, req *http.Request) {
	spot, ok := h.spotFromRequest(w, req)
	if !ok {
		return
	}

	var body SamplesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("invalid samples: %v", err))
		return
	}

	loc, err := spot.Location()
	if err != nil {
		log.Errorf("error resolving timezone for spot %s: %v", spot.ID, err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "spot timezone unavailable")
		return
	}

	days, err := ingest.MergeHourly(
		toSeries(body.Speed),
		toSeries(body.Gust),
		toSeries(body.Direction),
		toSeries(body.Sunshine),
		loc,
	)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}
	if len(days) == 0 {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "no complete hourly samples in request")
		return
	}

	h.controller.Store.UpsertDaySeries(spot.ID, days)

	if err := h.controller.rebuildPlans(spot); err != nil {
		log.Errorf("error rebuilding plans for spot %s: %v", spot.ID, err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error computing navigability plans")
		return
	}

	err = h.formatter.WriteResponseStatus(w, req, http.StatusAccepted, SamplesResponse{Status: "accepted", Days: len(days)}, nil)
	if err != nil {
		log.Errorf("error encoding samples response: %v", err)
	}
}

// GetWindows handles requests for a spot's upcoming navigable windows
func (h *Handlers) GetWindows(w http.ResponseWriter, req *http.Request) {
	spot, ok := h.spotFromRequest(w, req)
	if !ok {
		return
	}

	days := defaultForecastDays
	if v := req.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "days must be a number")
			return
		}
		days = parsed
	}
	if err := h.validate.Var(days, "gte=1,lte=16"); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "days must be between 1 and 16")
		return
	}

	riderID := req.URL.Query().Get("rider")

	plans, ok := h.spotPlans(w, req, spot, riderID)
	if !ok {
		return
	}

	upcoming := forecast.Upcoming(plans, h.controller.now())
	if len(upcoming) > days {
		upcoming = upcoming[:days]
	}
	if upcoming == nil {
		upcoming = []forecast.DayPlan{}
	}

	resp := WindowsResponse{
		SpotID:   spot.ID,
		SpotName: spot.Name,
		Rider:    riderID,
		Days:     upcoming,
	}
	if err := h.formatter.WriteResponse(w, req, resp, noCacheHeaders); err != nil {
		log.Errorf("error encoding windows response: %v", err)
	}
}

// GetDigest handles requests for the delivery text of the next day with
// navigable windows
func (h *Handlers) GetDigest(w http.ResponseWriter, req *http.Request) {
	spot, ok := h.spotFromRequest(w, req)
	if !ok {
		return
	}

	riderID := req.URL.Query().Get("rider")

	plans, ok := h.spotPlans(w, req, spot, riderID)
	if !ok {
		return
	}

	plan, found := forecast.FirstWithSlots(forecast.Upcoming(plans, h.controller.now()))
	if !found {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no navigable windows ahead")
		return
	}

	resp := DigestResponse{
		SpotID: spot.ID,
		Rider:  riderID,
		Date:   plan.Date.Format("2006-01-02"),
		Text:   forecast.ComposeDigest(spot.Name, plan),
	}
	if err := h.formatter.WriteResponse(w, req, resp, noCacheHeaders); err != nil {
		log.Errorf("error encoding digest response: %v", err)
	}
}

// GetHealth reports liveness
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	err := h.formatter.WriteResponse(w, req, map[string]string{
		"status":  "ok",
		"version": constants.Version,
	}, nil)
	if err != nil {
		log.Errorf("error encoding health response: %v", err)
	}
}

// spotPlans returns the spot's plans: the stored default plans when no
// rider is given, otherwise plans recomputed from the stored series with
// the rider's merged thresholds. Writes the error response and returns
// false when the spot has no stored data.
func (h *Handlers) spotPlans(w http.ResponseWriter, req *http.Request, spot *config.SpotData, riderID string) ([]forecast.DayPlan, bool) {
	if riderID == "" {
		plans, err := h.controller.Store.Plans(spot.ID)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusNotFound, "no data for spot")
			return nil, false
		}
		return plans, true
	}

	cfgData, err := h.controller.configProvider.LoadConfig()
	if err != nil {
		log.Errorf("error loading configuration: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error loading configuration")
		return nil, false
	}

	days, err := h.controller.Store.DaySeries(spot.ID)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no data for spot")
		return nil, false
	}

	loc, _ := spot.Location()
	plans, err := forecast.BuildDayPlans(days, cfgData.RiderConfig(riderID), forecast.SpotOptions(*spot, loc)...)
	if err != nil {
		log.Errorf("error computing rider plans for spot %s: %v", spot.ID, err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error computing navigability plans")
		return nil, false
	}
	return plans, true
}
