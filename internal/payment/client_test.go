package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "buyer@example.com", got["customer"].(map[string]any)["email"])
		assert.Equal(t, "u1", got["custom_data"].(map[string]any)["userId"])

		_, _ = w.Write([]byte(`{"data":{"id":"txn_1","status":"ready","checkout":{"url":"https://pay.example/txn_1"},
			"details":{"totals":{"grand_total":"2500","currency_code":"EUR"}}}}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL+"/", time.Second)
	txn, err := c.CreateTransaction(context.Background(), TransactionRequest{
		Items:         []LineItem{{PriceID: "pri_1", Quantity: 2}},
		CustomerEmail: "buyer@example.com",
		CustomData:    map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "txn_1", txn.ID)
	assert.Equal(t, "https://pay.example/txn_1", txn.CheckoutURL)
	assert.Equal(t, int64(2500), txn.Totals.GrandTotal)
	assert.Equal(t, "EUR", txn.Totals.Currency)
	assert.False(t, txn.Paid())
}

func TestCreateTransactionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"request_error","code":"price_not_found","detail":"pri_missing does not exist"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", srv.URL, 0).CreateTransaction(context.Background(), TransactionRequest{
		Items: []LineItem{{PriceID: "pri_missing", Quantity: 1}},
	})

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	assert.Equal(t, "price_not_found", pe.Code)
	assert.Contains(t, pe.Detail, "pri_missing")
}

func TestGetTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/txn_1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"txn_1","status":"completed","custom_data":{"userId":"u1"},
			"customer":{"email":"b@example.com"},"details":{"totals":{"grand_total":"1000","currency_code":"USD"},
			"formatted_totals":{"grand_total":"$10.00"}}}}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)
	txn, err := c.GetTransaction(context.Background(), "txn_1")
	require.NoError(t, err)
	assert.True(t, txn.Paid())
	assert.Equal(t, "b@example.com", txn.CustomerEmail)
	assert.JSONEq(t, `{"userId":"u1"}`, string(txn.CustomData))
	assert.Equal(t, "$10.00", txn.Totals.Display)

	_, err = c.GetTransaction(context.Background(), "txn_nope")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetTransactionMalformedTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"txn_1","status":"completed","details":{"totals":{"grand_total":"12.50","currency_code":"USD"}}}}`))
	}))
	defer srv.Close()

	txn, err := NewClient("key", srv.URL, time.Second).GetTransaction(context.Background(), "txn_1")
	assert.Nil(t, txn)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "get transaction", pe.Operation)
	assert.ErrorContains(t, pe.Err, "grand_total")
}

func TestPreviewPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"country_code":"DE"`)
		_, _ = w.Write([]byte(`{"data":{"currency_code":"EUR","details":{"line_items":[
			{"totals":{"total":"1190"},"formatted_totals":{"total":"€11.90"}}]}}}`))
	}))
	defer srv.Close()

	q, err := NewClient("key", srv.URL, time.Second).PreviewPrice(context.Background(), "pri_1", "de")
	require.NoError(t, err)
	assert.Equal(t, int64(1190), q.Amount)
	assert.Equal(t, "EUR", q.Currency)
	assert.Equal(t, "€11.90", q.DisplayPrice)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient("key", srv.URL, 20*time.Millisecond).GetTransaction(context.Background(), "txn_1")
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Error(t, pe.Err)
}
