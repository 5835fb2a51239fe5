package checkout

import (
	"context"
	"errors"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/store"
)

// Availability reports the remaining stock of a product.
func (s *Service) Availability(ctx context.Context, productID string) (*models.Availability, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	return availabilityOf(p), nil
}

// Restock adds quantity to a product's remaining and total stock (admin only).
func (s *Service) Restock(ctx context.Context, productID string, quantity int) (*models.Availability, error) {
	if quantity < 1 {
		return nil, apperror.New(apperror.KindInvalidInput, "restock quantity must be at least 1")
	}
	p, err := s.store.Restock(ctx, productID, quantity)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "product %s not found", productID)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "restock product %s", productID)
	}
	s.log.Info().Str("product_id", productID).Int("quantity", quantity).Int("remaining_stock", p.RemainingStock).Msg("product restocked")
	return availabilityOf(p), nil
}

func availabilityOf(p *models.Product) *models.Availability {
	return &models.Availability{
		ProductID:      p.ID,
		RemainingStock: p.RemainingStock,
		TotalStock:     p.TotalStock,
		InStock:        p.RemainingStock > 0,
	}
}
