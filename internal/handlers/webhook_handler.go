package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/webhook"
)

const maxWebhookBody = 1 << 20

type Reconciler interface {
	Handle(ctx context.Context, payload []byte, signature string) (webhook.Outcome, error)
}

type WebhookHandler struct {
	reconciler Reconciler
	log        *zap.Logger
}

func NewWebhookHandler(r Reconciler, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: r, log: log.Named("webhook")}
}

// Stripe takes the raw body; the signature covers the exact bytes.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httperr.BadRequest(c, "invalid_body", "Could not read request body.")
		return
	}

	outcome, err := h.reconciler.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("webhook rejected", zap.Error(err))
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
