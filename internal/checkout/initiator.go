package checkout

import (
	"context"
	"errors"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
)

// CreateSingleProductTransaction opens a provider checkout for one product.
func (s *Service) CreateSingleProductTransaction(ctx context.Context, id models.Identity, productID string, quantity int) (*models.CheckoutSession, error) {
	if quantity < 1 {
		return nil, apperror.New(apperror.KindInvalidInput, "quantity must be at least 1")
	}
	if productID == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "product id is required")
	}
	return s.initiate(ctx, id, models.OriginProduct, []models.PurchaseLine{{ProductID: productID, Quantity: quantity}})
}

// CreateCartTransaction opens a provider checkout for the caller's whole cart.
// The cart itself is left untouched until reconciliation.
func (s *Service) CreateCartTransaction(ctx context.Context, id models.Identity) (*models.CheckoutSession, error) {
	cart, err := s.store.GetCart(ctx, id.UserID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load cart")
	}
	if len(cart.Lines) == 0 {
		return nil, apperror.New(apperror.KindEmptyCart, "cart is empty")
	}

	lines := make([]models.PurchaseLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, models.PurchaseLine{ProductID: l.ProductID, Quantity: l.Quantity, PriceRef: l.PriceRef})
	}
	return s.initiate(ctx, id, models.OriginCart, lines)
}

// initiate validates stock and prices, then asks the provider for a transaction.
// Nothing local is written except the pending marker.
func (s *Service) initiate(ctx context.Context, id models.Identity, origin models.Origin, lines []models.PurchaseLine) (*models.CheckoutSession, error) {
	// 1. --- Load products ---
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load products")
	}

	// 2. --- Re-check stock and resolve price references ---
	country := s.country(id)
	intent := models.PurchaseIntent{UserID: id.UserID, Origin: origin, Lines: make([]models.PurchaseLine, 0, len(lines))}
	items := make([]payment.LineItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, apperror.New(apperror.KindNotFound, "product %s not found", l.ProductID)
		}
		if l.Quantity > p.RemainingStock {
			return nil, apperror.Stock(apperror.KindInsufficientStock, p.ID, max(p.RemainingStock, 0))
		}
		ref := p.PriceRefFor(country, l.PriceRef)
		if ref == "" {
			return nil, apperror.New(apperror.KindNotConfigured, "product %s has no provider price configured", p.ID)
		}
		intent.Lines = append(intent.Lines, models.PurchaseLine{ProductID: p.ID, Quantity: l.Quantity, PriceRef: ref})
		items = append(items, payment.LineItem{PriceID: ref, Quantity: l.Quantity})
	}

	// 3. --- Create the provider transaction ---
	txn, err := s.provider.CreateTransaction(ctx, payment.TransactionRequest{
		Items:         items,
		CustomerEmail: id.Email,
		CustomData:    intent,
	})
	if err != nil {
		return nil, providerError(err, "create transaction")
	}

	// 4. --- Remember who this transaction belongs to ---
	if s.pending != nil {
		if err := s.pending.MarkPending(ctx, txn.ID, id.UserID); err != nil {
			s.log.Warn().Err(err).Str("provider_transaction_id", txn.ID).Msg("mark transaction pending")
		}
	}

	s.log.Info().
		Str("provider_transaction_id", txn.ID).
		Str("user_id", id.UserID).
		Str("origin", string(origin)).
		Int("lines", len(items)).
		Msg("checkout transaction created")

	return &models.CheckoutSession{TransactionID: txn.ID, CheckoutURL: txn.CheckoutURL}, nil
}

// providerError tags a provider failure, keeping its detail for the client.
func providerError(err error, op string) *apperror.Error {
	e := apperror.Wrap(apperror.KindPaymentProvider, err, "payment provider: %s failed", op)
	var pe *payment.ProviderError
	if errors.As(err, &pe) {
		e.Detail = pe.Detail
	}
	return e
}
