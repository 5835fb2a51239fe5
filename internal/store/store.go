// Package store declares the persistence ports of the checkout core.
// internal/database implements them on MySQL, internal/memstore in process.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/recipeshop-checkout/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTransaction is returned when an Order for the provider transaction already exists.
	ErrDuplicateTransaction = errors.New("order for provider transaction already exists")
)

// Catalog is the product side: read prices, read and move stock.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	GetProducts(ctx context.Context, productIDs []string) (map[string]*models.Product, error)
	// Restock adds quantity to both remaining and total stock.
	Restock(ctx context.Context, productID string, quantity int) (*models.Product, error)
}

// Carts persists one cart per user.
type Carts interface {
	// GetCart returns an empty cart, not an error, when the user has none.
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// PutLine creates the line or overwrites its quantity and price reference.
	PutLine(ctx context.Context, userID string, line models.CartLine) error
	// RemoveLine reports whether a line was deleted.
	RemoveLine(ctx context.Context, userID, productID string) (bool, error)
}

// Orders persists reconciled orders.
type Orders interface {
	FindByTransactionID(ctx context.Context, providerTransactionID string) (*models.Order, error)

	// Fulfill atomically moves stock per line, records single-product purchases,
	// clears the cart when asked, and inserts the order last. A duplicate provider
	// transaction rolls the whole unit back and returns ErrDuplicateTransaction.
	Fulfill(ctx context.Context, f models.Fulfillment) (*models.Order, []models.StockShortfall, error)

	// RedeemAccessToken nulls the token and marks the confirmation viewed in one
	// conditional update. Unknown, foreign or spent tokens return ErrNotFound.
	RedeemAccessToken(ctx context.Context, userID, token string) (*models.Order, error)

	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context, limit, offset int) ([]models.Order, int, error)

	// MarkRefunded flips a completed or pending order to refunded.
	MarkRefunded(ctx context.Context, providerTransactionID string) (*models.Order, error)
}

// Users exposes the purchased-products list.
type Users interface {
	PurchasedProducts(ctx context.Context, userID string) ([]string, error)
}

// Store bundles every port; both implementations satisfy it.
type Store interface {
	Catalog
	Carts
	Orders
	Users
}
