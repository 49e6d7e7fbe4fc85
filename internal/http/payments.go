package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/qurylys/procurement/internal/service"
)

type paymentWebhookRequest struct {
	PaymentReference string  `json:"payment_reference" binding:"required"`
	ContractID       string  `json:"contract_id" binding:"required"`
	Amount           float64 `json:"amount"`
	ResultCode       int     `json:"result_code"`
}

// paymentWebhook receives at-least-once payment notifications from the
// gateway. Redeliveries and non-zero result codes are acknowledged with 200 so
// the gateway stops retrying.
func (h *Handler) paymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractID, err := uuid.Parse(strings.TrimSpace(req.ContractID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return
	}

	err = h.escrow.HandlePaymentNotification(c.Request.Context(), service.PaymentNotificationInput{
		ContractID:       contractID,
		PaymentReference: req.PaymentReference,
		Amount:           req.Amount,
		ResultCode:       req.ResultCode,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) escrowBalance(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	balance, err := h.escrow.Balance(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id.String(), "balance": balance})
}

type escrowPaymentResponse struct {
	PaymentReference string    `json:"payment_reference"`
	Amount           float64   `json:"amount"`
	ReceivedAt       time.Time `json:"received_at"`
}

func (h *Handler) escrowPayments(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	payments, err := h.escrow.Payments(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	items := make([]escrowPaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, escrowPaymentResponse{
			PaymentReference: p.PaymentReference,
			Amount:           p.Amount,
			ReceivedAt:       p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id.String(), "payments": items})
}
