// Package events publishes order lifecycle events for downstream consumers
// (fulfilment, analytics, the admin dashboard).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const TopicOrders = "recipeshop.orders"

const (
	EventOrderCompleted = "order.completed"
	EventOrderOversold  = "order.oversold"
	EventOrderRefunded  = "order.refunded"
)

// Envelope wraps every payload on the wire.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // provider transaction id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCompletedPayload struct {
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Origin        string    `json:"origin"`
	Items         []ItemQty `json:"items"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
}

type ShortfallDetail struct {
	ProductID string `json:"product_id"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type OrderOversoldPayload struct {
	OrderID       string            `json:"order_id"`
	TransactionID string            `json:"transaction_id"`
	Policy        string            `json:"policy"`
	Details       []ShortfallDetail `json:"details"`
}

type OrderRefundedPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
}

// Publisher hands an event to the bus. Implementations must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any) error
}

// NewEnvelope stamps payload with an id and timestamp.
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "recipeshop-checkout",
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// UnwrapPayload decodes an envelope payload into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
