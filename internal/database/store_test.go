package database

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewStore(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func fulfillment(policy models.OversellPolicy) models.Fulfillment {
	tok := "tok"
	return models.Fulfillment{
		Policy: policy,
		Order: models.Order{
			ID: "o1", UserID: "u1", ProviderTransactionID: "T1", Origin: models.OriginCart,
			Currency: "USD", DisplayPrice: "$25.00", PurchasePrice: 2500, Status: models.OrderCompleted,
			PurchasedAt: fixedNow, AccessToken: &tok,
			Lines: []models.OrderLine{{ProductID: "p2", Quantity: 1}, {ProductID: "p1", Quantity: 2}},
		},
		ClearCart: true,
	}
}

func TestFulfillCommitsInOneTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	// locked in product id order
	mock.ExpectQuery(q("SELECT remaining_stock FROM products WHERE id = ? FOR UPDATE")).
		WithArgs("p1").WillReturnRows(sqlmock.NewRows([]string{"remaining_stock"}).AddRow(5))
	mock.ExpectExec(q("UPDATE products SET remaining_stock = ?")).
		WithArgs(3, fixedNow, "p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT remaining_stock FROM products WHERE id = ? FOR UPDATE")).
		WithArgs("p2").WillReturnRows(sqlmock.NewRows([]string{"remaining_stock"}).AddRow(1))
	mock.ExpectExec(q("UPDATE products SET remaining_stock = ?")).
		WithArgs(0, fixedNow, "p2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM cart_items WHERE user_id = ?")).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO order_items")).WithArgs("o1", "p2", 1, "").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO order_items")).WithArgs("o1", "p1", 2, "").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, short, err := s.Fulfill(context.Background(), fulfillment(models.OversellTolerate))
	require.NoError(t, err)
	assert.Empty(t, short)
	assert.Equal(t, models.OrderCompleted, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfillDuplicateRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("p1").WillReturnRows(sqlmock.NewRows([]string{"remaining_stock"}).AddRow(5))
	mock.ExpectExec(q("UPDATE products")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("p2").WillReturnRows(sqlmock.NewRows([]string{"remaining_stock"}).AddRow(5))
	mock.ExpectExec(q("UPDATE products")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM cart_items")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("INSERT INTO orders")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'T1' for key 'uq_orders_provider_transaction'"})
	mock.ExpectRollback()

	_, _, err := s.Fulfill(context.Background(), fulfillment(models.OversellTolerate))
	assert.ErrorIs(t, err, store.ErrDuplicateTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFulfillRejectPolicySkipsShortLine(t *testing.T) {
	s, mock := newMockStore(t)
	f := fulfillment(models.OversellReject)
	f.Order.Lines = []models.OrderLine{{ProductID: "p1", Quantity: 3}}
	f.ClearCart = false
	f.AddPurchased = true

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs("p1").WillReturnRows(sqlmock.NewRows([]string{"remaining_stock"}).AddRow(1))
	mock.ExpectExec(q("INSERT IGNORE INTO user_purchases")).WithArgs("u1", "p1", fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO order_items")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	o, short, err := s.Fulfill(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, 1, short[0].Available)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.True(t, o.NeedsReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var orderCols = []string{"id", "user_id", "provider_transaction_id", "origin", "currency", "display_price", "purchase_price",
	"status", "purchased_at", "access_token", "confirmation_viewed", "needs_review"}

func TestRedeemAccessToken(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM orders WHERE access_token = ? AND user_id = ? FOR UPDATE")).
		WithArgs("tok", "u1").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("o1"))
	mock.ExpectExec(q("UPDATE orders SET access_token = NULL, confirmation_viewed = 1 WHERE id = ? AND access_token IS NOT NULL")).
		WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM orders WHERE id = ?")).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow("o1", "u1", "T1", "product", "USD", "$5.00", 500, "completed", fixedNow, nil, 1, 0))
	mock.ExpectQuery(q("FROM order_items WHERE order_id IN (?)")).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "quantity", "price_ref"}).AddRow("o1", "p1", 1, "pri_1"))
	mock.ExpectCommit()

	o, err := s.RedeemAccessToken(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.Nil(t, o.AccessToken)
	assert.True(t, o.ConfirmationViewed)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "pri_1", o.Lines[0].PriceRef)

	// second tab: the token is gone
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id FROM orders WHERE access_token = ?")).WithArgs("tok", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err = s.RedeemAccessToken(ctx, "u1", "tok")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductsDecodesLocalizedPrices(t *testing.T) {
	s, mock := newMockStore(t)
	cols := []string{"id", "name", "description", "image_url", "provider_product_id", "provider_price_id",
		"localized_prices", "unit_price", "currency", "total_stock", "remaining_stock", "created_at", "updated_at"}

	mock.ExpectQuery(q("FROM products WHERE id IN (?,?)")).WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "Pasta kit", "", "", "pro_1", "pri_1", `{"DE":"pri_eur"}`, "12.50", "USD", 10, 4, fixedNow, fixedNow))

	got, err := s.GetProducts(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pri_eur", got["p1"].PriceRefFor("de", ""))
	assert.Equal(t, "12.5", got["p1"].UnitPrice.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartLines(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(q("FROM cart_items")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price_ref", "added_at", "updated_at"}))
	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	mock.ExpectExec(q("INSERT INTO cart_items")).
		WithArgs("u1", "p1", 2, "pri_1", fixedNow, fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.PutLine(ctx, "u1", models.CartLine{ProductID: "p1", Quantity: 2, PriceRef: "pri_1"}))

	mock.ExpectExec(q("DELETE FROM cart_items WHERE user_id = ? AND product_id = ?")).
		WithArgs("u1", "p9").WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err := s.RemoveLine(ctx, "u1", "p9")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestockUnknownProduct(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(q("UPDATE products")).WithArgs(5, 5, fixedNow, "nope").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.Restock(context.Background(), "nope", 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
