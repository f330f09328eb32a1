package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/modules/payments"
)

type WebhookHandler struct {
	Logger *slog.Logger
	Svc    *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Svc: svc}
}

type webhookBody struct {
	ResultCode string `json:"resultCode"`
	TID        string `json:"tid"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     int    `json:"amount"`
}

// POST /api/nicepay/webhook
// The gateway expects the literal body "OK"; anything else makes it retry.
func (h *WebhookHandler) Handle(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid body")
		return
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		c.String(http.StatusBadRequest, "invalid json")
		return
	}

	err = h.Svc.Handle(c.Request.Context(), payments.WebhookInput{
		ResultCode: body.ResultCode,
		TID:        body.TID,
		OrderID:    body.OrderID,
		Status:     body.Status,
		Amount:     body.Amount,
	}, raw)
	if err != nil {
		h.Logger.Error("webhook handling failed",
			"order_id", body.OrderID, "status", body.Status, "err", err)
		c.String(http.StatusInternalServerError, "error")
		return
	}

	c.String(http.StatusOK, "OK")
}
