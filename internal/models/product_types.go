package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table.
// The catalog CRUD lives elsewhere; checkout only reads prices and moves stock.
type Product struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	ImageURL    string `json:"imageUrl" db:"image_url"`

	// --- Payment provider references ---
	ProviderProductID string            `json:"providerProductId" db:"provider_product_id"`
	ProviderPriceID   string            `json:"providerPriceId" db:"provider_price_id"`
	LocalizedPrices   map[string]string `json:"localizedPrices,omitempty" db:"localized_prices"` // country -> provider price id

	// --- Pricing & Stock ---
	UnitPrice      decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Currency       string          `json:"currency" db:"currency"`
	TotalStock     int             `json:"totalStock" db:"total_stock"`
	RemainingStock int             `json:"remainingStock" db:"remaining_stock"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PriceRefFor picks the provider price id for a buyer's country.
// A country-specific price wins, then the captured reference, then the product default.
func (p *Product) PriceRefFor(country, captured string) string {
	if ref, ok := p.LocalizedPrices[strings.ToUpper(country)]; ok && ref != "" {
		return ref
	}
	if captured != "" {
		return captured
	}
	return p.ProviderPriceID
}

// Availability is the Inventory Ledger's read model for one product.
type Availability struct {
	ProductID      string `json:"productId"`
	RemainingStock int    `json:"remainingStock"`
	TotalStock     int    `json:"totalStock"`
	InStock        bool   `json:"inStock"`
}

// PricePreview is a provider-localized (or fallback) price for display.
type PricePreview struct {
	ProductID    string `json:"productId"`
	PriceRef     string `json:"priceReference"`
	Country      string `json:"country"`
	Amount       int64  `json:"amount"` // minor units
	Currency     string `json:"currency"`
	DisplayPrice string `json:"displayPrice"`
	Localized    bool   `json:"localized"`
}
