package database

import (
	"context"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
)

// GetCart returns the user's cart lines; no rows is an empty cart.
func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, price_ref, added_at, updated_at
		FROM cart_items
		WHERE user_id = ?
		ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := &models.Cart{UserID: userID, Lines: []models.CartLine{}}
	for rows.Next() {
		var l models.CartLine
		var updated time.Time
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.PriceRef, &l.AddedAt, &updated); err != nil {
			return nil, err
		}
		if updated.After(cart.UpdatedAt) {
			cart.UpdatedAt = updated
		}
		cart.Lines = append(cart.Lines, l)
	}
	return cart, rows.Err()
}

// PutLine upserts a cart line with an absolute quantity.
func (s *Store) PutLine(ctx context.Context, userID string, line models.CartLine) error {
	now := s.now()
	added := line.AddedAt
	if added.IsZero() {
		added = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, price_ref, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = VALUES(quantity),
			price_ref = VALUES(price_ref),
			updated_at = VALUES(updated_at)`,
		userID, line.ProductID, line.Quantity, line.PriceRef, added, now)
	return err
}

func (s *Store) RemoveLine(ctx context.Context, userID, productID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
