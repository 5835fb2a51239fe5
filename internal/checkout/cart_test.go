package checkout

import (
	"context"
	"testing"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemReportsMaxAddable(t *testing.T) {
	f := newFixture(t, Options{})
	f.product("p1", 3)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u1", "p1", 5, "")
	e, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInsufficientStock, e.Kind)
	assert.Equal(t, "p1", e.ProductID)
	assert.Equal(t, 3, e.Available)

	view, err := f.svc.AddItem(ctx, "u1", "p1", 2, "")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "pri_p1", view.Items[0].PriceRef)
	assert.Equal(t, "25", view.Subtotal.String())

	// merged quantity is re-validated: 2 in cart, 1 more addable
	_, err = f.svc.AddItem(ctx, "u1", "p1", 2, "")
	e, _ = apperror.As(err)
	require.NotNil(t, e)
	assert.Equal(t, apperror.KindInsufficientStock, e.Kind)
	assert.Equal(t, 1, e.Available)

	view, err = f.svc.AddItem(ctx, "u1", "p1", 1, "")
	require.NoError(t, err)
	assert.Equal(t, 3, view.TotalItems)
}

func TestAddItemOutOfStockAndUnknown(t *testing.T) {
	f := newFixture(t, Options{})
	f.product("p0", 0)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u1", "p0", 1, "")
	assert.ErrorIs(t, err, apperror.OutOfStock)

	_, err = f.svc.AddItem(ctx, "u1", "nope", 1, "")
	assert.ErrorIs(t, err, apperror.NotFound)

	_, err = f.svc.AddItem(ctx, "u1", "p0", 0, "")
	assert.ErrorIs(t, err, apperror.InvalidInput)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t, Options{})
	f.product("p1", 4)
	ctx := context.Background()

	_, err := f.svc.UpdateItem(ctx, "u1", "p1", 1)
	assert.ErrorIs(t, err, apperror.NotFound)

	_, err = f.svc.AddItem(ctx, "u1", "p1", 1, "pri_captured")
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, "u1", "p1", 9)
	assert.ErrorIs(t, err, apperror.InsufficientStock)

	view, err := f.svc.UpdateItem(ctx, "u1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, "pri_captured", view.Items[0].PriceRef)

	view, err = f.svc.RemoveItem(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	// idempotent
	_, err = f.svc.RemoveItem(ctx, "u1", "p1")
	assert.NoError(t, err)
}

func TestGetCartEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	view, err := f.svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
}

func TestLedger(t *testing.T) {
	f := newFixture(t, Options{})
	f.product("p1", 0)
	ctx := context.Background()

	a, err := f.svc.Availability(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, a.InStock)

	a, err = f.svc.Restock(ctx, "p1", 5)
	require.NoError(t, err)
	assert.True(t, a.InStock)
	assert.Equal(t, 5, a.RemainingStock)
	assert.Equal(t, 5, a.TotalStock)

	_, err = f.svc.Restock(ctx, "p1", 0)
	assert.ErrorIs(t, err, apperror.InvalidInput)
	_, err = f.svc.Restock(ctx, "missing", 1)
	assert.ErrorIs(t, err, apperror.NotFound)
}
