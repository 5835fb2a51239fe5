package routes

import (
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/handlers"
	"github.com/01moynul/recipeshop-checkout/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Options struct {
	CORSOrigin string
	Tokens     middleware.TokenValidator
	Log        zerolog.Logger
}

func SetupRouter(h *handlers.Handlers, o Options) *gin.Engine {
	router := gin.New()

	// --- Global middleware ---
	// CORS first so preflight requests never reach auth.
	router.Use(middleware.CORS(o.CORSOrigin))
	router.Use(middleware.RequestLogger(o.Log))

	// --- Public Routes ---
	router.GET("/healthz", h.Health)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong!"})
	})
	router.GET("/products/:productId/availability", h.GetAvailability)

	// --- Payment Provider Webhook (signed, no JWT) ---
	router.POST("/webhook/payment", h.PaymentWebhook)

	// --- Protected Routes (Login Required) ---
	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware(o.Tokens))
	{
		auth.GET("/products/:productId/price", h.GetPrice)

		// --- Cart Routes ---
		cart := auth.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.POST("/items", h.AddToCart)
			cart.PUT("/items/:productId", h.UpdateCartItem)
			cart.DELETE("/items/:productId", h.RemoveCartItem)
		}

		// --- Checkout Routes ---
		checkout := auth.Group("/checkout")
		{
			checkout.POST("/product/:productId", h.CheckoutProduct)
			checkout.POST("/cart", h.CheckoutCart)
			checkout.POST("/complete", h.CompleteCheckout)
		}

		// --- Order Routes ---
		orders := auth.Group("/orders")
		{
			orders.GET("/by-transaction/:transactionId", h.GetOrderByTransaction)
			orders.POST("/verify-token", h.VerifyOrderToken)
			orders.GET("/mine", h.GetMyOrders)
			orders.GET("/all", middleware.AdminOnly(), h.GetAllOrders)
		}
		auth.GET("/purchases/mine", h.GetMyPurchases)

		// --- Admin Routes ---
		admin := auth.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/products/:productId/restock", h.RestockProduct)
		}
	}

	return router
}
