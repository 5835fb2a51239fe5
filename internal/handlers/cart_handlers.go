package handlers

import (
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/middleware"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers ---
//

type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	PriceRef  string `json:"priceRef"`
}

// GetCart is the handler for GET /cart
func (h *Handlers) GetCart(c *gin.Context) {
	view, err := h.Checkout.GetCart(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddToCart is the handler for POST /cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Add ---
	view, err := h.Checkout.AddItem(c.Request.Context(), middleware.Identity(c).UserID, input.ProductID, input.Quantity, input.PriceRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateCartItemInput allows 0, which removes the line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// UpdateCartItem is the handler for PUT /cart/items/:productId
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.Checkout.UpdateItem(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"), *input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveCartItem is the handler for DELETE /cart/items/:productId
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	view, err := h.Checkout.RemoveItem(c.Request.Context(), middleware.Identity(c).UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
