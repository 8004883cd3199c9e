package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/domain"
	"charter/internal/redis"
	"charter/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	dispatcher     *service.EventDispatcher
	messageStore   redis.MessageStoreInterface
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, dispatcher *service.EventDispatcher, messageStore redis.MessageStoreInterface) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		dispatcher:     dispatcher,
		messageStore:   messageStore,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	CustomerID         string  `json:"customer_id"`
	PickupAddress      string  `json:"pickup_address"`
	DropoffAddress     string  `json:"dropoff_address"`
	PickupAt           string  `json:"pickup_at"`
	BookedHours        float64 `json:"booked_hours"`
	BasePrice          float64 `json:"base_price"`
	DepositAmount      float64 `json:"deposit_amount,omitempty"`
	OvertimeHourlyRate float64 `json:"overtime_hourly_rate,omitempty"`
	PromoCode          string  `json:"promo_code,omitempty"`
}

// BookingResponse is the HTTP response for booking data.
type BookingResponse struct {
	Reference      string  `json:"reference"`
	Number         string  `json:"number"`
	CustomerID     string  `json:"customer_id"`
	DriverID       string  `json:"driver_id,omitempty"`
	Status         string  `json:"status"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	PickupAt       string  `json:"pickup_at,omitempty"`
	BookedHours    float64 `json:"booked_hours"`

	BasePrice      float64 `json:"base_price"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	TotalAmount    float64 `json:"total_amount"`
	DepositAmount  float64 `json:"deposit_amount"`
	BalanceAmount  float64 `json:"balance_amount"`
	OvertimeFee    float64 `json:"overtime_fee,omitempty"`
	TipAmount      float64 `json:"tip_amount,omitempty"`
	PromoCode      string  `json:"promo_code,omitempty"`

	NeedsReview  bool   `json:"needs_review,omitempty"`
	ReviewReason string `json:"review_reason,omitempty"`

	CreatedAt   string `json:"created_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	CancelledAt string `json:"cancelled_at,omitempty"`
}

// MessageResponse is the HTTP response for a booking's system message.
type MessageResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func newBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		Reference:      b.Reference,
		Number:         b.Number,
		CustomerID:     b.CustomerID,
		DriverID:       b.DriverID,
		Status:         string(b.Status),
		PickupAddress:  b.PickupAddress,
		DropoffAddress: b.DropoffAddress,
		BookedHours:    b.BookedHours,
		BasePrice:      b.BasePrice,
		DiscountAmount: b.DiscountAmount,
		TotalAmount:    b.TotalAmount,
		DepositAmount:  b.DepositAmount,
		BalanceAmount:  b.BalanceAmount,
		OvertimeFee:    b.OvertimeFeeAmount,
		TipAmount:      b.TipAmount,
		PromoCode:      b.PromoCode,
		NeedsReview:    b.NeedsReview,
		ReviewReason:   b.ReviewReason,
	}

	if !b.PickupAt.IsZero() {
		resp.PickupAt = b.PickupAt.Format(time.RFC3339)
	}
	if !b.CreatedAt.IsZero() {
		resp.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	if !b.CompletedAt.IsZero() {
		resp.CompletedAt = b.CompletedAt.Format(time.RFC3339)
	}
	if !b.CancelledAt.IsZero() {
		resp.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}

	return resp
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var pickupAt time.Time
	if req.PickupAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PickupAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup_at must be RFC3339"})
			return
		}
		pickupAt = parsed
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:         req.CustomerID,
		PickupAddress:      req.PickupAddress,
		DropoffAddress:     req.DropoffAddress,
		PickupAt:           pickupAt,
		BookedHours:        req.BookedHours,
		BasePrice:          req.BasePrice,
		DepositAmount:      req.DepositAmount,
		OvertimeHourlyRate: req.OvertimeHourlyRate,
		PromoCode:          req.PromoCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:ref
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}

// BookingStatusResponse is the HTTP response for the status poll endpoint.
type BookingStatusResponse struct {
	Reference string  `json:"reference"`
	Number    string  `json:"number"`
	Status    string  `json:"status"`
	Total     float64 `json:"total"`
}

// GetBookingStatus handles GET /v1/bookings/:ref/status
func (h *BookingHandler) GetBookingStatus(c *gin.Context) {
	snapshot, err := h.bookingService.GetBookingStatus(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookingStatusResponse{
		Reference: snapshot.Reference,
		Number:    snapshot.Number,
		Status:    snapshot.Status,
		Total:     snapshot.Total,
	})
}

// CancelBooking handles POST /v1/bookings/:ref/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, events, err := h.bookingService.CancelBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}

// RefundBooking handles POST /v1/bookings/:ref/refund
func (h *BookingHandler) RefundBooking(c *gin.Context) {
	booking, events, err := h.bookingService.RefundBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.dispatcher.DispatchAsync(events)
	respondJSON(c, http.StatusOK, newBookingResponse(booking))
}

// ListMessages handles GET /v1/bookings/:ref/messages
func (h *BookingHandler) ListMessages(c *gin.Context) {
	messages, err := h.messageStore.List(c.Request.Context(), c.Param("ref"), 100)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, MessageResponse{
			ID:        m.ID,
			Kind:      m.Kind,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
