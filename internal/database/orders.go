package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
)

const orderColumns = `id, user_id, provider_transaction_id, origin, currency, display_price, purchase_price,
	status, purchased_at, access_token, confirmation_viewed, needs_review`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var token sql.NullString
	if err := row.Scan(
		&o.ID, &o.UserID, &o.ProviderTransactionID, &o.Origin, &o.Currency, &o.DisplayPrice, &o.PurchasePrice,
		&o.Status, &o.PurchasedAt, &token, &o.ConfirmationViewed, &o.NeedsReview,
	); err != nil {
		return nil, err
	}
	if token.Valid {
		o.AccessToken = &token.String
	}
	return &o, nil
}

// loadLines attaches order_items to each order.
func loadLines(ctx context.Context, q querier, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*models.Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		o.Lines = []models.OrderLine{}
		args = append(args, o.ID)
	}

	rows, err := q.QueryContext(ctx,
		"SELECT order_id, product_id, quantity, price_ref FROM order_items WHERE order_id IN ("+placeholders(len(args))+") ORDER BY order_id, product_id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var l models.OrderLine
		if err := rows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.PriceRef); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

func (s *Store) findOne(ctx context.Context, q querier, where string, args ...any) (*models.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE "+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, q, []*models.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) findMany(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var ptrs []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ptrs = append(ptrs, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadLines(ctx, s.db, ptrs); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(ptrs))
	for _, o := range ptrs {
		out = append(out, *o)
	}
	return out, nil
}

func (s *Store) FindByTransactionID(ctx context.Context, providerTransactionID string) (*models.Order, error) {
	return s.findOne(ctx, s.db, "provider_transaction_id = ?", providerTransactionID)
}

// Fulfill moves stock, records purchases, clears the cart and inserts the
// order in one transaction. Product rows are locked in id order so two
// fulfilments touching the same products cannot deadlock.
func (s *Store) Fulfill(ctx context.Context, f models.Fulfillment) (*models.Order, []models.StockShortfall, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	now := s.now()

	// 1. --- Lock and move stock ---
	lines := append([]models.OrderLine(nil), f.Order.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var shortfalls []models.StockShortfall
	for _, l := range lines {
		var remaining int
		err := tx.QueryRowContext(ctx, "SELECT remaining_stock FROM products WHERE id = ? FOR UPDATE", l.ProductID).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			shortfalls = append(shortfalls, models.StockShortfall{ProductID: l.ProductID, Requested: l.Quantity})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("lock product %s: %w", l.ProductID, err)
		}

		next := remaining - l.Quantity
		if next < 0 {
			shortfalls = append(shortfalls, models.StockShortfall{ProductID: l.ProductID, Requested: l.Quantity, Available: remaining})
			if f.Policy == models.OversellReject {
				continue
			}
			next = 0
		}
		if _, err := tx.ExecContext(ctx, "UPDATE products SET remaining_stock = ?, updated_at = ? WHERE id = ?", next, now, l.ProductID); err != nil {
			return nil, nil, fmt.Errorf("update stock %s: %w", l.ProductID, err)
		}
	}

	// 2. --- Purchased products (set-add) ---
	if f.AddPurchased {
		for _, l := range lines {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO user_purchases (user_id, product_id, created_at) VALUES (?, ?, ?)",
				f.Order.UserID, l.ProductID, now); err != nil {
				return nil, nil, fmt.Errorf("record purchase: %w", err)
			}
		}
	}

	// 3. --- Clear the whole cart ---
	if f.ClearCart {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", f.Order.UserID); err != nil {
			return nil, nil, fmt.Errorf("clear cart: %w", err)
		}
	}

	// 4. --- Insert the order; the unique key decides who wins ---
	o := f.Order
	o.ApplyShortfalls(f.Policy, shortfalls)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, provider_transaction_id, origin, currency, display_price, purchase_price,
			status, purchased_at, access_token, confirmation_viewed, needs_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.ProviderTransactionID, o.Origin, o.Currency, o.DisplayPrice, o.PurchasePrice,
		o.Status, o.PurchasedAt, o.AccessToken, o.ConfirmationViewed, o.NeedsReview)
	if isDuplicate(err) {
		return nil, nil, store.ErrDuplicateTransaction
	}
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}
	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, price_ref) VALUES (?, ?, ?, ?)",
			o.ID, l.ProductID, l.Quantity, l.PriceRef); err != nil {
			return nil, nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	// 5. --- Commit ---
	if err := tx.Commit(); err != nil {
		if isDuplicate(err) {
			return nil, nil, store.ErrDuplicateTransaction
		}
		return nil, nil, err
	}
	return &o, shortfalls, nil
}

// RedeemAccessToken locks the row, then clears the token only if it is still set.
func (s *Store) RedeemAccessToken(ctx context.Context, userID, token string) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var orderID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM orders WHERE access_token = ? AND user_id = ? FOR UPDATE", token, userID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET access_token = NULL, confirmation_viewed = 1 WHERE id = ? AND access_token IS NOT NULL", orderID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, store.ErrNotFound
	}

	o, err := s.findOne(ctx, tx, "id = ?", orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.findMany(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY purchased_at DESC, id DESC", userID)
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]models.Order, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&total); err != nil {
		return nil, 0, err
	}
	orders, err := s.findMany(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY purchased_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkRefunded is idempotent: an already-refunded order is returned as is.
func (s *Store) MarkRefunded(ctx context.Context, providerTransactionID string) (*models.Order, error) {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = 'refunded' WHERE provider_transaction_id = ?", providerTransactionID); err != nil {
		return nil, err
	}
	return s.FindByTransactionID(ctx, providerTransactionID)
}
