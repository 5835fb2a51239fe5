package checkout

import (
	"context"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/shopspring/decimal"
)

// AddItem adds quantity of a product to the user's cart, merging with an existing line.
// priceRef is the provider price captured at add time; empty means the product default.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int, priceRef string) (*models.CartView, error) {
	// 1. --- Validate input ---
	if quantity < 1 {
		return nil, apperror.New(apperror.KindInvalidInput, "quantity must be at least 1")
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}

	// 2. --- Find existing line ---
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load cart")
	}
	var existing *models.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			existing = &cart.Lines[i]
			break
		}
	}

	// 3. --- Check stock against the combined quantity ---
	if p.RemainingStock <= 0 {
		return nil, apperror.Stock(apperror.KindOutOfStock, productID, 0)
	}
	inCart := 0
	if existing != nil {
		inCart = existing.Quantity
	}
	if inCart+quantity > p.RemainingStock {
		return nil, apperror.Stock(apperror.KindInsufficientStock, productID, max(p.RemainingStock-inCart, 0))
	}

	// 4. --- Upsert ---
	line := models.CartLine{ProductID: productID, Quantity: inCart + quantity, PriceRef: priceRef}
	if line.PriceRef == "" {
		if existing != nil && existing.PriceRef != "" {
			line.PriceRef = existing.PriceRef
		} else {
			line.PriceRef = p.ProviderPriceID
		}
	}
	if existing != nil {
		line.AddedAt = existing.AddedAt
	}
	if err := s.store.PutLine(ctx, userID, line); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "save cart line")
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem sets the quantity of an existing line. Zero removes it.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*models.CartView, error) {
	if quantity < 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load cart")
	}
	var line *models.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			line = &cart.Lines[i]
			break
		}
	}
	if line == nil {
		return nil, apperror.New(apperror.KindNotFound, "product %s is not in the cart", productID)
	}

	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.RemainingStock {
		return nil, apperror.Stock(apperror.KindInsufficientStock, productID, p.RemainingStock)
	}

	line.Quantity = quantity
	if err := s.store.PutLine(ctx, userID, *line); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "save cart line")
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line; removing a missing line is not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*models.CartView, error) {
	removed, err := s.store.RemoveLine(ctx, userID, productID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "remove cart line")
	}
	if !removed {
		s.log.Debug().Str("user_id", userID).Str("product_id", productID).Msg("remove of absent cart line")
	}
	return s.GetCart(ctx, userID)
}

// GetCart returns the cart joined with product details. Lines whose product
// has since been deleted from the catalog are left out.
func (s *Service) GetCart(ctx context.Context, userID string) (*models.CartView, error) {
	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load cart")
	}
	view := &models.CartView{Items: []models.CartItem{}, Subtotal: decimal.Zero}
	if len(cart.Lines) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load cart products")
	}

	for _, l := range cart.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		item := models.CartItem{
			CartLine:       l,
			Name:           p.Name,
			ImageURL:       p.ImageURL,
			UnitPrice:      p.UnitPrice,
			Currency:       p.Currency,
			RemainingStock: p.RemainingStock,
			LineTotal:      p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		view.Items = append(view.Items, item)
		view.Subtotal = view.Subtotal.Add(item.LineTotal)
		view.TotalItems += l.Quantity
	}
	return view, nil
}
