package models

import "time"

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
	OrderRefunded  OrderStatus = "refunded"
	OrderPending   OrderStatus = "pending"
)

// Order is the model for the 'orders' table.
// ProviderTransactionID is unique: at most one Order per provider transaction.
type Order struct {
	ID                    string      `json:"id" db:"id"`
	UserID                string      `json:"userId" db:"user_id"`
	Lines                 []OrderLine `json:"lines"`
	ProviderTransactionID string      `json:"providerTransactionId" db:"provider_transaction_id"`
	Origin                Origin      `json:"origin" db:"origin"`
	Currency              string      `json:"currency" db:"currency"`
	DisplayPrice          string      `json:"displayPrice" db:"display_price"`   // provider-localized
	PurchasePrice         int64       `json:"purchasePrice" db:"purchase_price"` // minor units, authoritative
	Status                OrderStatus `json:"status" db:"status"`
	PurchasedAt           time.Time   `json:"purchasedAt" db:"purchased_at"`

	AccessToken        *string `json:"-" db:"access_token"` // single-use, nulled on first view
	ConfirmationViewed bool    `json:"confirmationViewed" db:"confirmation_viewed"`

	// NeedsReview marks an oversold order for manual follow-up.
	NeedsReview bool `json:"needsReview" db:"needs_review"`
}

// OrderLine is the model for the 'order_items' table.
type OrderLine struct {
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
	PriceRef  string `json:"priceReference" db:"price_ref"`

	// Populated on read.
	ProductName string `json:"productName,omitempty" db:"-"`
	ImageURL    string `json:"imageUrl,omitempty" db:"-"`
}

// OversellPolicy decides what reconciliation does when paid-for stock is gone.
type OversellPolicy string

const (
	// OversellTolerate floors stock at zero and completes the order.
	OversellTolerate OversellPolicy = "tolerate"
	// OversellReject leaves stock untouched for short lines and parks the order as pending.
	OversellReject OversellPolicy = "reject"
)

// StockShortfall records a line that could not be fully covered by remaining stock.
type StockShortfall struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// ApplyShortfalls sets status and review flag after stock has been moved.
func (o *Order) ApplyShortfalls(policy OversellPolicy, shortfalls []StockShortfall) {
	if len(shortfalls) == 0 {
		return
	}
	o.NeedsReview = true
	if policy == OversellReject {
		o.Status = OrderPending
	}
}

// Fulfillment is the unit of work the reconciler hands to the store:
// move stock, record the purchase, clear the cart, then insert the order.
type Fulfillment struct {
	Order        Order
	Policy       OversellPolicy
	AddPurchased bool // single-product purchases land on the user's purchased list
	ClearCart    bool
}

// OrderPage is a paginated order listing.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
