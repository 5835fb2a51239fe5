package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart defines the struct for the 'carts' table. One cart per user.
type Cart struct {
	UserID    string     `json:"userId" db:"user_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CartLine defines the struct for the 'cart_items' table.
type CartLine struct {
	ProductID string    `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	PriceRef  string    `json:"priceReference" db:"price_ref"` // captured at add-to-cart time
	AddedAt   time.Time `json:"addedAt" db:"added_at"`
}

// CartItem is a cart line joined with its product for display.
type CartItem struct {
	CartLine
	Name           string          `json:"name"`
	ImageURL       string          `json:"imageUrl"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	Currency       string          `json:"currency"`
	RemainingStock int             `json:"remainingStock"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
}

// CartView is the response shape for GET /cart.
type CartView struct {
	Items      []CartItem      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"totalItems"`
}
