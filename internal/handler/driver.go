package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"charter/internal/domain"
	"charter/internal/repository"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverRepo repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{driverRepo: driverRepo}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	VehiclePlate string `json:"vehicle_plate"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	VehiclePlate   string `json:"vehicle_plate"`
	Status         string `json:"status"`
	CompletedTrips int    `json:"completed_trips"`
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	// Check if driver already exists
	existing, err := h.driverRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Driver already registered",
			"driver":  newDriverResponse(existing),
		})
		return
	}

	driver := &domain.Driver{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Phone:        req.Phone,
		VehiclePlate: req.VehiclePlate,
		Status:       domain.DriverStatusOffline,
	}

	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newDriverResponse(driver))
}

// ListAvailable handles GET /v1/drivers/available
func (h *DriverHandler) ListAvailable(c *gin.Context) {
	drivers, err := h.driverRepo.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, newDriverResponse(d))
	}

	c.JSON(http.StatusOK, response)
}

// SetStatus handles POST /v1/drivers/:id/status
func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status := domain.DriverStatus(req.Status)
	if status != domain.DriverStatusAvailable && status != domain.DriverStatusOffline {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be AVAILABLE or OFFLINE"})
		return
	}

	if err := h.driverRepo.UpdateStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func newDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:             d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		VehiclePlate:   d.VehiclePlate,
		Status:         string(d.Status),
		CompletedTrips: d.CompletedTrips,
	}
}
