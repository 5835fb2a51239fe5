package handlers

import (
	"context"

	"github.com/01moynul/recipeshop-checkout/internal/checkout"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Checkout *checkout.Service
	Webhooks *payment.Verifier
	Log      zerolog.Logger

	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// logger prefers the request-scoped logger set by middleware.RequestLogger.
func (h *Handlers) logger(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.Log
}
