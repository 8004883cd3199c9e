package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/domain"
	"charter/internal/service"
)

// TripHandler handles HTTP requests for driver trip events.
type TripHandler struct {
	tripService *service.TripService
	dispatcher  *service.EventDispatcher
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, dispatcher *service.EventDispatcher) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		dispatcher:  dispatcher,
	}
}

// TripEventRequest is the HTTP request body for driver trip events.
type TripEventRequest struct {
	DriverID string `json:"driver_id"`
}

// Depart handles POST /v1/bookings/:ref/depart
func (h *TripHandler) Depart(c *gin.Context) {
	h.handleEvent(c, h.tripService.Depart)
}

// Arrive handles POST /v1/bookings/:ref/arrive
func (h *TripHandler) Arrive(c *gin.Context) {
	h.handleEvent(c, h.tripService.Arrive)
}

// StartTrip handles POST /v1/bookings/:ref/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	h.handleEvent(c, h.tripService.StartTrip)
}

// EndTrip handles POST /v1/bookings/:ref/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	h.handleEvent(c, h.tripService.EndTrip)
}

func (h *TripHandler) handleEvent(c *gin.Context, apply func(context.Context, string, string) (*domain.Booking, []domain.Event, error)) {
	var req TripEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, events, err := apply(c.Request.Context(), c.Param("ref"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}
