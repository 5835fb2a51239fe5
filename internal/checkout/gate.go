package checkout

import (
	"context"
	"errors"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PollByTransactionID returns the caller's order for a transaction, or
// NotFoundYet while reconciliation may still be on its way.
func (s *Service) PollByTransactionID(ctx context.Context, userID, transactionID string) (*models.Order, error) {
	if transactionID == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "transaction id is required")
	}

	o, err := s.store.FindByTransactionID(ctx, transactionID)
	if err == nil {
		if o.UserID != userID {
			return nil, apperror.New(apperror.KindNotFound, "order not found")
		}
		return &s.withProductDetails(ctx, []models.Order{*o})[0], nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, err, "look up order")
	}

	// No order yet. Without a tracker every unknown id might still be pending.
	if s.pending == nil {
		return nil, apperror.New(apperror.KindNotFoundYet, "order is still being confirmed")
	}
	owner, ok, err := s.pending.PendingOwner(ctx, transactionID)
	if err != nil {
		s.log.Warn().Err(err).Str("provider_transaction_id", transactionID).Msg("pending tracker unavailable")
		return nil, apperror.New(apperror.KindNotFoundYet, "order is still being confirmed")
	}
	if !ok || owner != userID {
		return nil, apperror.New(apperror.KindNotFound, "order not found")
	}
	return nil, apperror.New(apperror.KindNotFoundYet, "order is still being confirmed")
}

// ViewOnceByAccessToken redeems a confirmation token. It succeeds exactly once.
func (s *Service) ViewOnceByAccessToken(ctx context.Context, userID, token string) (*models.Order, error) {
	if token == "" {
		return nil, apperror.New(apperror.KindInvalidToken, "invalid or already used token")
	}
	o, err := s.store.RedeemAccessToken(ctx, userID, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.New(apperror.KindInvalidToken, "invalid or already used token")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "redeem access token")
	}
	return &s.withProductDetails(ctx, []models.Order{*o})[0], nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "list orders")
	}
	return s.withProductDetails(ctx, orders), nil
}

// ListAll pages through every order, newest first (admin only).
func (s *Service) ListAll(ctx context.Context, limit, offset int) (*models.OrderPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "offset cannot be negative")
	}
	orders, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "list orders")
	}
	return &models.OrderPage{
		Orders: s.withProductDetails(ctx, orders),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// withProductDetails fills product names and images on order lines.
// A failed lookup leaves lines bare rather than failing the read.
func (s *Service) withProductDetails(ctx context.Context, orders []models.Order) []models.Order {
	seen := map[string]bool{}
	var ids []string
	for _, o := range orders {
		for _, l := range o.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	if len(ids) == 0 {
		return orders
	}
	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Msg("load products for order lines")
		return orders
	}
	for i := range orders {
		for j := range orders[i].Lines {
			if p, ok := products[orders[i].Lines[j].ProductID]; ok {
				orders[i].Lines[j].ProductName = p.Name
				orders[i].Lines[j].ImageURL = p.ImageURL
			}
		}
	}
	return orders
}

// PurchasedProducts lists products the user bought through single-product checkout.
func (s *Service) PurchasedProducts(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.store.PurchasedProducts(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "list purchased products")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
