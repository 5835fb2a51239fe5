package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Origin tells the reconciler where a purchase came from.
type Origin string

const (
	OriginProduct Origin = "product"
	OriginCart    Origin = "cart"
)

// PurchaseLine is one {product, quantity, price} entry of a purchase intent.
type PurchaseLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	PriceRef  string `json:"priceReference"`
}

// PurchaseIntent unifies single-product and cart checkout:
// a single-product purchase is just a list of length one.
type PurchaseIntent struct {
	UserID string         `json:"userId"`
	Origin Origin         `json:"origin"`
	Lines  []PurchaseLine `json:"cart"`
}

// Validate checks the intent carries something fulfillable.
func (pi PurchaseIntent) Validate() error {
	if pi.UserID == "" {
		return errors.New("missing userId")
	}
	if pi.Origin != OriginProduct && pi.Origin != OriginCart {
		return fmt.Errorf("unknown origin %q", pi.Origin)
	}
	if len(pi.Lines) == 0 {
		return errors.New("no lines")
	}
	seen := make(map[string]struct{}, len(pi.Lines))
	for _, l := range pi.Lines {
		if l.ProductID == "" || l.Quantity < 1 {
			return fmt.Errorf("invalid line %+v", l)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("product %s appears on more than one line", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// OrderLines converts intent lines to order lines.
func (pi PurchaseIntent) OrderLines() []OrderLine {
	out := make([]OrderLine, 0, len(pi.Lines))
	for _, l := range pi.Lines {
		out = append(out, OrderLine{ProductID: l.ProductID, Quantity: l.Quantity, PriceRef: l.PriceRef})
	}
	return out
}

// DecodeIntent reads the custom-data payload embedded at transaction creation.
func DecodeIntent(raw json.RawMessage) (PurchaseIntent, error) {
	var pi PurchaseIntent
	if len(raw) == 0 || string(raw) == "null" {
		return pi, errors.New("custom data is empty")
	}
	if err := json.Unmarshal(raw, &pi); err != nil {
		return pi, fmt.Errorf("decode custom data: %w", err)
	}
	if pi.Origin == "" {
		// older transactions carried no origin; more than one line can only be a cart
		pi.Origin = OriginProduct
		if len(pi.Lines) > 1 {
			pi.Origin = OriginCart
		}
	}
	return pi, pi.Validate()
}

// CheckoutSession is what the client receives after a transaction is created.
type CheckoutSession struct {
	TransactionID string `json:"transactionId"`
	CheckoutURL   string `json:"checkoutUrl"`
}
