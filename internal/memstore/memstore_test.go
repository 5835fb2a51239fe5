package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fulfillment(txn string, qty int, policy models.OversellPolicy) models.Fulfillment {
	tok := "tok-" + txn
	return models.Fulfillment{
		Policy: policy,
		Order: models.Order{
			ID:                    "ord-" + txn,
			UserID:                "u1",
			ProviderTransactionID: txn,
			Lines:                 []models.OrderLine{{ProductID: "p1", Quantity: qty}},
			Status:                models.OrderCompleted,
			AccessToken:           &tok,
			PurchasedAt:           time.Now(),
		},
		ClearCart: true,
	}
}

func TestFulfillDuplicateLeavesStockAlone(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutProduct(models.Product{ID: "p1", TotalStock: 5, RemainingStock: 5})
	require.NoError(t, s.PutLine(ctx, "u1", models.CartLine{ProductID: "p1", Quantity: 2}))

	_, short, err := s.Fulfill(ctx, fulfillment("txn_1", 2, models.OversellTolerate))
	require.NoError(t, err)
	assert.Empty(t, short)

	_, _, err = s.Fulfill(ctx, fulfillment("txn_1", 2, models.OversellTolerate))
	assert.ErrorIs(t, err, store.ErrDuplicateTransaction)

	p, _ := s.GetProduct(ctx, "p1")
	assert.Equal(t, 3, p.RemainingStock)

	cart, _ := s.GetCart(ctx, "u1")
	assert.Empty(t, cart.Lines)
}

func TestFulfillOversellPolicies(t *testing.T) {
	ctx := context.Background()

	s := New()
	s.PutProduct(models.Product{ID: "p1", TotalStock: 1, RemainingStock: 1})
	o, short, err := s.Fulfill(ctx, fulfillment("txn_t", 3, models.OversellTolerate))
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, 1, short[0].Available)
	assert.Equal(t, models.OrderCompleted, o.Status)
	assert.True(t, o.NeedsReview)
	p, _ := s.GetProduct(ctx, "p1")
	assert.Equal(t, 0, p.RemainingStock)

	s = New()
	s.PutProduct(models.Product{ID: "p1", TotalStock: 1, RemainingStock: 1})
	o, _, err = s.Fulfill(ctx, fulfillment("txn_r", 3, models.OversellReject))
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
	p, _ = s.GetProduct(ctx, "p1")
	assert.Equal(t, 1, p.RemainingStock)
}

func TestRedeemAccessTokenOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutProduct(models.Product{ID: "p1", TotalStock: 5, RemainingStock: 5})
	_, _, err := s.Fulfill(ctx, fulfillment("txn_1", 1, models.OversellTolerate))
	require.NoError(t, err)

	_, err = s.RedeemAccessToken(ctx, "someone-else", "tok-txn_1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	o, err := s.RedeemAccessToken(ctx, "u1", "tok-txn_1")
	require.NoError(t, err)
	assert.True(t, o.ConfirmationViewed)
	assert.Nil(t, o.AccessToken)

	_, err = s.RedeemAccessToken(ctx, "u1", "tok-txn_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutProduct(models.Product{ID: "p1", TotalStock: 10, RemainingStock: 10})
	for _, txn := range []string{"a", "b", "c"} {
		_, _, err := s.Fulfill(ctx, fulfillment(txn, 1, models.OversellTolerate))
		require.NoError(t, err)
	}

	page, total, err := s.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)

	page, _, _ = s.List(ctx, 2, 2)
	assert.Len(t, page, 1)

	page, _, _ = s.List(ctx, 2, 10)
	assert.Empty(t, page)
}
