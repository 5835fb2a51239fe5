package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/recipeshop-checkout/internal/middleware"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers ---
//

// polledOrder hands the owner the one-time confirmation token until it is redeemed.
type polledOrder struct {
	*models.Order
	AccessToken string `json:"accessToken,omitempty"`
}

// GetOrderByTransaction is the handler for GET /orders/by-transaction/:transactionId.
// Clients poll it with backoff until the order appears.
func (h *Handlers) GetOrderByTransaction(c *gin.Context) {
	o, err := h.Checkout.PollByTransactionID(c.Request.Context(), middleware.Identity(c).UserID, c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := polledOrder{Order: o}
	if o.AccessToken != nil && !o.ConfirmationViewed {
		resp.AccessToken = *o.AccessToken
	}
	c.JSON(http.StatusOK, resp)
}

type VerifyTokenInput struct {
	Token string `json:"token" binding:"required"`
}

// VerifyOrderToken is the handler for POST /orders/verify-token
func (h *Handlers) VerifyOrderToken(c *gin.Context) {
	var input VerifyTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.Checkout.ViewOnceByAccessToken(c.Request.Context(), middleware.Identity(c).UserID, input.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetMyOrders is the handler for GET /orders/mine
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Checkout.ListMine(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetAllOrders is the handler for GET /orders/all (admin)
func (h *Handlers) GetAllOrders(c *gin.Context) {
	// 1. --- Parse pagination ---
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, err)
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Fetch page ---
	page, err := h.Checkout.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetMyPurchases is the handler for GET /purchases/mine
func (h *Handlers) GetMyPurchases(c *gin.Context) {
	ids, err := h.Checkout.PurchasedProducts(c.Request.Context(), middleware.Identity(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchasedProducts": ids})
}
