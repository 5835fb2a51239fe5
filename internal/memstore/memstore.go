// Package memstore is an in-process implementation of store.Store.
// One mutex guards everything so Fulfill and RedeemAccessToken are atomic.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	products  map[string]*models.Product
	carts     map[string]*models.Cart
	orders    map[string]*models.Order // by provider transaction id
	purchased map[string]map[string]bool
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products:  make(map[string]*models.Product),
		carts:     make(map[string]*models.Cart),
		orders:    make(map[string]*models.Order),
		purchased: make(map[string]map[string]bool),
		now:       time.Now,
	}
}

// PutProduct seeds or replaces a product (admin catalog stand-in).
func (s *Store) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

// --- Catalog ---

func (s *Store) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProducts(_ context.Context, productIDs []string) (map[string]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Store) Restock(_ context.Context, productID string, quantity int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.RemainingStock += quantity
	p.TotalStock += quantity
	p.UpdatedAt = s.now()
	cp := *p
	return &cp, nil
}

// --- Carts ---

func (s *Store) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return &models.Cart{UserID: userID, Lines: []models.CartLine{}}, nil
	}
	cp := *c
	cp.Lines = append([]models.CartLine(nil), c.Lines...)
	return &cp, nil
}

func (s *Store) PutLine(_ context.Context, userID string, line models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = &models.Cart{UserID: userID}
		s.carts[userID] = c
	}
	c.UpdatedAt = s.now()
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity = line.Quantity
			c.Lines[i].PriceRef = line.PriceRef
			return nil
		}
	}
	if line.AddedAt.IsZero() {
		line.AddedAt = c.UpdatedAt
	}
	c.Lines = append(c.Lines, line)
	return nil
}

func (s *Store) RemoveLine(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return false, nil
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = s.now()
			return true, nil
		}
	}
	return false, nil
}

// --- Orders ---

func (s *Store) FindByTransactionID(_ context.Context, providerTransactionID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[providerTransactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) Fulfill(_ context.Context, f models.Fulfillment) (*models.Order, []models.StockShortfall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The unique key check happens under the same lock as the stock move,
	// which gives the same all-or-nothing outcome as the MySQL transaction.
	if _, exists := s.orders[f.Order.ProviderTransactionID]; exists {
		return nil, nil, store.ErrDuplicateTransaction
	}

	var shortfalls []models.StockShortfall
	for _, l := range f.Order.Lines {
		p, ok := s.products[l.ProductID]
		if !ok {
			shortfalls = append(shortfalls, models.StockShortfall{ProductID: l.ProductID, Requested: l.Quantity})
			continue
		}
		if p.RemainingStock < l.Quantity {
			shortfalls = append(shortfalls, models.StockShortfall{
				ProductID: l.ProductID, Requested: l.Quantity, Available: p.RemainingStock,
			})
			if f.Policy == models.OversellReject {
				continue
			}
			p.RemainingStock = 0
		} else {
			p.RemainingStock -= l.Quantity
		}
		p.UpdatedAt = s.now()
	}

	if f.AddPurchased {
		set, ok := s.purchased[f.Order.UserID]
		if !ok {
			set = make(map[string]bool)
			s.purchased[f.Order.UserID] = set
		}
		for _, l := range f.Order.Lines {
			set[l.ProductID] = true
		}
	}

	if f.ClearCart {
		delete(s.carts, f.Order.UserID)
	}

	o := f.Order
	o.ApplyShortfalls(f.Policy, shortfalls)
	s.orders[o.ProviderTransactionID] = copyOrder(&o)
	return copyOrder(&o), shortfalls, nil
}

func (s *Store) RedeemAccessToken(_ context.Context, userID, token string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		return nil, store.ErrNotFound
	}
	for _, o := range s.orders {
		if o.AccessToken == nil || *o.AccessToken != token || o.UserID != userID {
			continue
		}
		o.AccessToken = nil
		o.ConfirmationViewed = true
		return copyOrder(o), nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) List(_ context.Context, limit, offset int) ([]models.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		all = append(all, *copyOrder(o))
	}
	sortNewestFirst(all)

	total := len(all)
	if offset >= total {
		return []models.Order{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *Store) MarkRefunded(_ context.Context, providerTransactionID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[providerTransactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.Status = models.OrderRefunded
	return copyOrder(o), nil
}

// --- Users ---

func (s *Store) PurchasedProducts(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{}
	for id := range s.purchased[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Lines = append([]models.OrderLine(nil), o.Lines...)
	if o.AccessToken != nil {
		tok := *o.AccessToken
		cp.AccessToken = &tok
	}
	return &cp
}

func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].PurchasedAt.Equal(orders[j].PurchasedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].PurchasedAt.After(orders[j].PurchasedAt)
	})
}
