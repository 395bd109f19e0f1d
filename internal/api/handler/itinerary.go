package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/api/middleware"
	"github.com/tripplanner/tripplanner/internal/api/models"
	"github.com/tripplanner/tripplanner/internal/api/response"
	"github.com/tripplanner/tripplanner/internal/itinerary"
	"github.com/tripplanner/tripplanner/internal/routing"
	"github.com/tripplanner/tripplanner/internal/stop"
)

// ItineraryService resolves trip itineraries. *itinerary.Service satisfies it.
type ItineraryService interface {
	ForTrip(ctx context.Context, tripID string) (*itinerary.TripItinerary, error)
	Day(ctx context.Context, tripID string, dayIndex int) (*itinerary.DayPlan, error)
}

// ItineraryHandler handles itinerary endpoints.
type ItineraryHandler struct {
	service ItineraryService
	logger  zerolog.Logger
}

// NewItineraryHandler creates a new ItineraryHandler.
func NewItineraryHandler(service ItineraryService, logger zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{service: service, logger: logger}
}

// GetItinerary handles GET /v1/trips/{tripId}/itinerary - the trip's stops
// grouped by day with a route estimate for every consecutive pair.
func (h *ItineraryHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		response.BadRequest(w, r, "tripId is required", nil)
		return
	}

	it, err := h.service.ForTrip(r.Context(), tripID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("trip_id", tripID).
			Msg("failed to fetch itinerary")
		response.InternalError(w, r, "failed to fetch itinerary")
		return
	}

	resp := models.ItineraryResponse{
		DaySequences:   make([][]models.Stop, len(it.Days)),
		RouteEstimates: make([][]*models.RouteEstimate, len(it.Estimates)),
	}
	for d, day := range it.Days {
		resp.DaySequences[d] = make([]models.Stop, len(day))
		for i, s := range day {
			resp.DaySequences[d][i] = toStop(s, it.DisplayTimes[d][i])
		}
	}
	for d, legs := range it.Estimates {
		resp.RouteEstimates[d] = toEstimates(legs)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// GetDay handles GET /v1/trips/{tripId}/days/{dayIndex} - a single day of
// the trip.
func (h *ItineraryHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	dayIndex, err := strconv.Atoi(chi.URLParam(r, "dayIndex"))
	if err != nil || dayIndex < 0 {
		response.BadRequest(w, r, "invalid day index", []models.FieldError{
			{Field: "dayIndex", Message: "must be a non-negative integer", Code: "INVALID"},
		})
		return
	}

	plan, err := h.service.Day(r.Context(), tripID, dayIndex)
	switch {
	case errors.Is(err, itinerary.ErrDayNotFound):
		response.NotFound(w, r, "trip has no stops on this day")
		return
	case err != nil:
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("trip_id", tripID).
			Int("day_index", dayIndex).
			Msg("failed to fetch trip day")
		response.InternalError(w, r, "failed to fetch itinerary")
		return
	}

	resp := models.DayResponse{
		DayIndex:       plan.DayIndex,
		Stops:          make([]models.Stop, len(plan.Stops)),
		RouteEstimates: toEstimates(plan.Estimates),
	}
	for i, ts := range plan.Stops {
		resp.Stops[i] = toStop(ts.Stop, ts.DisplayTime)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func toStop(s stop.Stop, displayTime string) models.Stop {
	return models.Stop{
		ID:           s.ID,
		TripDayID:    s.TripDayID,
		DayIndex:     s.DayIndex,
		Position:     s.Position,
		POIID:        s.POIID,
		Name:         s.Name,
		Kind:         s.Kind,
		Lat:          s.Lat,
		Lon:          s.Lon,
		Duration:     models.Duration{Hours: s.Duration.Hours, Minutes: s.Duration.Minutes},
		DurationText: s.Duration.String(),
		StartTime:    s.StartTime,
		DisplayTime:  displayTime,
	}
}

func toEstimates(legs []*routing.Estimate) []*models.RouteEstimate {
	out := make([]*models.RouteEstimate, len(legs))
	for i, e := range legs {
		if e == nil {
			continue
		}
		out[i] = &models.RouteEstimate{
			From:            e.From,
			To:              e.To,
			DistanceMeters:  e.DistanceMeters,
			DurationSeconds: e.DurationSeconds,
		}
	}
	return out
}
