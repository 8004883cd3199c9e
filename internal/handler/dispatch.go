package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/service"
)

// DispatchHandler handles HTTP requests for driver assignment.
type DispatchHandler struct {
	dispatchService *service.DispatchService
	dispatcher      *service.EventDispatcher
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(dispatchService *service.DispatchService, dispatcher *service.EventDispatcher) *DispatchHandler {
	return &DispatchHandler{
		dispatchService: dispatchService,
		dispatcher:      dispatcher,
	}
}

// DriverDecisionRequest is the HTTP request body for a driver accepting or
// declining an assignment.
type DriverDecisionRequest struct {
	DriverID string `json:"driver_id"`
}

// AssignDriverResponse is the HTTP response for a driver assignment.
type AssignDriverResponse struct {
	BookingRef string `json:"booking_ref"`
	DriverID   string `json:"driver_id"`
	DriverName string `json:"driver_name"`
	Phone      string `json:"phone"`
}

// AssignDriver handles POST /v1/bookings/:ref/assign
func (h *DispatchHandler) AssignDriver(c *gin.Context) {
	ref := c.Param("ref")

	driver, events, err := h.dispatchService.AssignDriver(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, AssignDriverResponse{
		BookingRef: ref,
		DriverID:   driver.ID,
		DriverName: driver.Name,
		Phone:      driver.Phone,
	})
}

// ConfirmDriver handles POST /v1/bookings/:ref/confirm
func (h *DispatchHandler) ConfirmDriver(c *gin.Context) {
	var req DriverDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, events, err := h.dispatchService.ConfirmDriver(c.Request.Context(), c.Param("ref"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}

// RejectDriver handles POST /v1/bookings/:ref/reject
func (h *DispatchHandler) RejectDriver(c *gin.Context) {
	var req DriverDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	booking, events, err := h.dispatchService.RejectDriver(c.Request.Context(), c.Param("ref"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}
