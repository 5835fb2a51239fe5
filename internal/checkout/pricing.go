package checkout

import (
	"context"
	"strings"

	"github.com/01moynul/recipeshop-checkout/internal/models"
)

// PreviewPrice returns the provider-localized price of one unit, falling back
// to the stored unit price when the provider cannot answer.
func (s *Service) PreviewPrice(ctx context.Context, id models.Identity, productID, country string) (*models.PricePreview, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if country == "" {
		country = s.country(id)
	}
	country = strings.ToUpper(country)

	ref := p.PriceRefFor(country, "")
	fallback := &models.PricePreview{
		ProductID:    p.ID,
		PriceRef:     ref,
		Country:      country,
		Amount:       models.ToMinorUnits(p.UnitPrice, p.Currency),
		Currency:     strings.ToUpper(p.Currency),
		DisplayPrice: models.FormatPrice(models.ToMinorUnits(p.UnitPrice, p.Currency), p.Currency),
	}
	if ref == "" {
		return fallback, nil
	}

	q, err := s.provider.PreviewPrice(ctx, ref, country)
	if err != nil {
		s.log.Warn().Err(err).Str("product_id", p.ID).Str("country", country).Msg("price preview failed, using stored price")
		return fallback, nil
	}
	display := q.DisplayPrice
	if display == "" {
		display = models.FormatPrice(q.Amount, q.Currency)
	}
	return &models.PricePreview{
		ProductID:    p.ID,
		PriceRef:     ref,
		Country:      country,
		Amount:       q.Amount,
		Currency:     q.Currency,
		DisplayPrice: display,
		Localized:    true,
	}, nil
}
