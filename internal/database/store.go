package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

// Store implements store.Store on MySQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// --- Catalog ---

const productColumns = `id, name, COALESCE(description, ''), image_url, provider_product_id, provider_price_id,
	localized_prices, unit_price, currency, total_stock, remaining_stock, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var localized sql.NullString
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.ProviderProductID, &p.ProviderPriceID,
		&localized, &p.UnitPrice, &p.Currency, &p.TotalStock, &p.RemainingStock, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if localized.Valid && localized.String != "" {
		if err := json.Unmarshal([]byte(localized.String), &p.LocalizedPrices); err != nil {
			return nil, fmt.Errorf("product %s localized_prices: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", productID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

func (s *Store) GetProducts(ctx context.Context, productIDs []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id IN ("+placeholders(len(args))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *Store) Restock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET remaining_stock = remaining_stock + ?, total_stock = total_stock + ?, updated_at = ?
		WHERE id = ?`,
		quantity, quantity, s.now(), productID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProduct(ctx, productID)
}

// --- Users ---

func (s *Store) PurchasedProducts(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT product_id FROM user_purchases WHERE user_id = ? ORDER BY product_id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
