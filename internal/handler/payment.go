package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"charter/internal/domain"
	"charter/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// InitiatePaymentRequest is the HTTP request body for initiating a payment.
type InitiatePaymentRequest struct {
	Type string `json:"type"` // DEPOSIT or BALANCE
}

// PaymentLinkResponse is the HTTP response for an initiated payment.
type PaymentLinkResponse struct {
	TransactionID string  `json:"transaction_id"`
	OrderNo       string  `json:"order_no"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	URL           string  `json:"url"`
	CreatedAt     string  `json:"created_at"`
}

// InitiatePayment handles POST /v1/bookings/:ref/pay
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	var ptype domain.PaymentType
	switch req.Type {
	case "DEPOSIT", "deposit":
		ptype = domain.PaymentTypeDeposit
	case "BALANCE", "balance":
		ptype = domain.PaymentTypeBalance
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "type must be DEPOSIT or BALANCE"})
		return
	}

	link, err := h.paymentService.InitiatePayment(c.Request.Context(), c.Param("ref"), ptype)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PaymentLinkResponse{
		TransactionID: link.Payment.TransactionID,
		OrderNo:       link.Payment.OrderNo,
		Type:          string(link.Payment.Type),
		Amount:        link.Payment.Amount,
		Status:        string(link.Payment.Status),
		URL:           link.URL,
		CreatedAt:     link.Payment.CreatedAt.Format(time.RFC3339),
	})
}
