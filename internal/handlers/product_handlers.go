package handlers

import (
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/middleware"
	"github.com/gin-gonic/gin"
)

// GetAvailability is the handler for GET /products/:productId/availability
func (h *Handlers) GetAvailability(c *gin.Context) {
	a, err := h.Checkout.Availability(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetPrice is the handler for GET /products/:productId/price?country=XX
func (h *Handlers) GetPrice(c *gin.Context) {
	p, err := h.Checkout.PreviewPrice(c.Request.Context(), middleware.Identity(c), c.Param("productId"), c.Query("country"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type RestockInput struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// RestockProduct is the handler for POST /admin/products/:productId/restock
func (h *Handlers) RestockProduct(c *gin.Context) {
	var input RestockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	a, err := h.Checkout.Restock(c.Request.Context(), c.Param("productId"), input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Health is the handler for GET /healthz
func (h *Handlers) Health(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
