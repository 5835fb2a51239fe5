package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier("whsec", 5*time.Minute)
	v.now = func() time.Time { return now }
	body := []byte(`{"event_type":"transaction.completed"}`)

	assert.NoError(t, v.Verify(v.Sign(now, body), body))
	assert.ErrorIs(t, v.Verify("", body), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify("ts=1", body), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify(v.Sign(now, body), []byte(`{}`)), ErrBadSignature)
	assert.ErrorIs(t, v.Verify(v.Sign(now.Add(-time.Hour), body), body), ErrStaleSignature)

	other := NewVerifier("different", 5*time.Minute)
	assert.ErrorIs(t, v.Verify(other.Sign(now, body), body), ErrBadSignature)
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"event_id":"evt_1","event_type":"transaction.completed","occurred_at":"2024-05-01T10:00:00Z",
		"data":{"id":"txn_9","status":"completed","custom_data":{"userId":"u1","cart":[{"productId":"p1","quantity":1}]},
		"details":{"totals":{"grand_total":"999","currency_code":"USD"}}}}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventTransactionCompleted, ev.EventType)
	assert.Equal(t, "txn_9", ev.Transaction.ID)
	assert.Equal(t, int64(999), ev.Transaction.Totals.GrandTotal)
	assert.NotEmpty(t, ev.Transaction.CustomData)

	_, err = ParseEvent([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseEventTotals(t *testing.T) {
	body := []byte(`{"event_id":"evt_2","event_type":"transaction.completed","data":{"id":"txn_eu","status":"completed",
		"details":{"totals":{"grand_total":"1250","currency_code":"EUR"},"formatted_totals":{"grand_total":"€12,50"}}}}`)

	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), ev.Transaction.Totals.GrandTotal)
	assert.Equal(t, "€12,50", ev.Transaction.Totals.Display)

	malformed := []byte(`{"event_id":"evt_3","event_type":"transaction.completed","data":{"id":"txn_bad","status":"completed",
		"details":{"totals":{"grand_total":"12.50","currency_code":"EUR"}}}}`)
	_, err = ParseEvent(malformed)
	assert.ErrorContains(t, err, "grand_total")

	// events without totals still parse
	ev, err = ParseEvent([]byte(`{"event_id":"evt_4","event_type":"transaction.refunded","data":{"id":"txn_r"}}`))
	require.NoError(t, err)
	assert.Zero(t, ev.Transaction.Totals.GrandTotal)
}
