package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/service"
)

// CallbackHandler receives asynchronous settlement notifications from the
// payment gateway.
type CallbackHandler struct {
	settlementService *service.SettlementService
	dispatcher        *service.EventDispatcher
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(settlementService *service.SettlementService, dispatcher *service.EventDispatcher) *CallbackHandler {
	return &CallbackHandler{
		settlementService: settlementService,
		dispatcher:        dispatcher,
	}
}

// HandleGatewayCallback handles POST /v1/payments/callback.
//
// The gateway delivers form-encoded fields and expects a plaintext "OK"
// body; anything else, or any non-2xx status, triggers redelivery. Business
// outcomes (duplicates, failures, anomalies) therefore all return 200 with
// the ack; only a malformed request or a failure on our side returns an
// error status.
func (h *CallbackHandler) HandleGatewayCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	params := make(map[string]string, len(c.Request.Form))
	for key, values := range c.Request.Form {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	result, err := h.settlementService.HandleCallback(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrMissingField) {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		// Store errors and lock contention: non-2xx so the gateway
		// redelivers once the transient condition clears.
		c.String(http.StatusInternalServerError, "error")
		return
	}

	// Events are delivered after the ack; the gateway does not wait on
	// notifications.
	h.dispatcher.DispatchAsync(result.Events)

	c.String(http.StatusOK, result.Ack)
}
