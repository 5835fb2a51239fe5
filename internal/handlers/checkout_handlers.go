package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/middleware"
	"github.com/gin-gonic/gin"
)

//
// --- Checkout Handlers ---
//

type ProductCheckoutInput struct {
	Quantity int `json:"quantity" binding:"omitempty,gt=0"`
}

// CheckoutProduct is the handler for POST /checkout/product/:productId
func (h *Handlers) CheckoutProduct(c *gin.Context) {
	// 1. --- Bind (an empty body buys one unit) ---
	var input ProductCheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	// 2. --- Create the provider transaction ---
	sess, err := h.Checkout.CreateSingleProductTransaction(c.Request.Context(), middleware.Identity(c), c.Param("productId"), input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// CheckoutCart is the handler for POST /checkout/cart
func (h *Handlers) CheckoutCart(c *gin.Context) {
	sess, err := h.Checkout.CreateCartTransaction(c.Request.Context(), middleware.Identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type CompleteCheckoutInput struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

// CompleteCheckout is the handler for POST /checkout/complete, the
// client-side "checkout.completed" relay.
func (h *Handlers) CompleteCheckout(c *gin.Context) {
	var input CompleteCheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.Checkout.CompleteFromClient(c.Request.Context(), middleware.Identity(c), input.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": o.ID, "transactionId": o.ProviderTransactionID, "status": o.Status})
}
