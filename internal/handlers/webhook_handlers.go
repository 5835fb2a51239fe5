package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// PaymentWebhook is the handler for POST /webhook/payment.
// The raw body is verified before any JSON parsing. Once a delivery is
// accepted the answer is 200, including duplicates and transactions we
// refuse; only internal failures return 500 so the provider retries.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	log := h.logger(c)

	// 1. --- Read the raw body ---
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unreadable webhook body"})
		return
	}

	// 2. --- Verify the signature ---
	if err := h.Webhooks.Verify(c.GetHeader(payment.SignatureHeader), body); err != nil {
		log.Warn().Err(err).Msg("webhook signature rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	// 3. --- Parse ---
	ev, err := payment.ParseEvent(body)
	if err != nil {
		log.Warn().Err(err).Msg("malformed webhook")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	// 4. --- Reconcile ---
	err = h.Checkout.HandleWebhookEvent(c.Request.Context(), ev)
	switch {
	case err == nil:
	case errors.Is(err, apperror.InvalidTransaction):
		log.Warn().Err(err).Str("event_id", ev.EventID).Str("provider_transaction_id", ev.Transaction.ID).Msg("webhook acknowledged without fulfilment")
	default:
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
