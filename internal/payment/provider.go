package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

//go:generate mockgen -destination=../mocks/mock_payment.go -package=mocks github.com/01moynul/recipeshop-checkout/internal/payment Provider

// Provider is the hosted payment processor as seen by checkout.
type Provider interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*Transaction, error)
	PreviewPrice(ctx context.Context, priceRef, country string) (*PriceQuote, error)
}

// Transaction statuses that count as paid.
const (
	StatusCompleted = "completed"
	StatusPaid      = "paid"
)

type LineItem struct {
	PriceID  string `json:"price_id"`
	Quantity int    `json:"quantity"`
}

type TransactionRequest struct {
	Items         []LineItem
	CustomerEmail string
	CustomData    any
}

type Totals struct {
	GrandTotal int64  // minor units
	Currency   string // ISO 4217
	Display    string // provider-formatted, e.g. "€12.50"
}

type Transaction struct {
	ID            string
	Status        string
	CheckoutURL   string
	CustomerEmail string
	CustomData    json.RawMessage
	Totals        Totals
}

// Paid reports whether the provider considers the transaction settled.
func (t *Transaction) Paid() bool {
	return t.Status == StatusCompleted || t.Status == StatusPaid
}

type PriceQuote struct {
	Amount       int64
	Currency     string
	DisplayPrice string
}

// ProviderError carries what the processor said when it refused a call.
type ProviderError struct {
	Operation  string
	StatusCode int
	Code       string
	Detail     string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("payment provider %s failed: %v", e.Operation, e.Err)
	case e.Code != "":
		return fmt.Sprintf("payment provider %s failed (%d %s): %s", e.Operation, e.StatusCode, e.Code, e.Detail)
	default:
		return fmt.Sprintf("payment provider %s failed with status %d", e.Operation, e.StatusCode)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ErrTransactionNotFound is returned by GetTransaction for unknown ids.
var ErrTransactionNotFound = errors.New("transaction not found at provider")
