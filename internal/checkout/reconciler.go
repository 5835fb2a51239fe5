package checkout

import (
	"context"
	"errors"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/email"
	"github.com/01moynul/recipeshop-checkout/internal/events"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// HandleWebhookEvent dispatches a verified provider notification.
// Event types checkout does not care about are ignored.
func (s *Service) HandleWebhookEvent(ctx context.Context, ev *payment.Event) error {
	switch ev.EventType {
	case payment.EventTransactionCompleted:
		_, err := s.reconcile(ctx, &ev.Transaction, "", "")
		return err
	case payment.EventTransactionRefunded:
		return s.Refund(ctx, ev.Transaction.ID)
	default:
		s.log.Debug().Str("event_type", ev.EventType).Str("event_id", ev.EventID).Msg("ignoring webhook event")
		return nil
	}
}

// CompleteFromClient handles the client-reported completion event. The
// provider lookup is the authenticity check: the transaction must be paid
// and must have been issued to the caller.
func (s *Service) CompleteFromClient(ctx context.Context, id models.Identity, transactionID string) (*models.Order, error) {
	if transactionID == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "transactionId is required")
	}

	// 1. --- Already reconciled? ---
	existing, err := s.store.FindByTransactionID(ctx, transactionID)
	switch {
	case err == nil:
		if existing.UserID != id.UserID {
			return nil, apperror.New(apperror.KindInvalidTransaction, "transaction %s does not belong to caller", transactionID)
		}
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperror.Wrap(apperror.KindInternal, err, "look up order")
	}

	// 2. --- Ask the provider ---
	txn, err := s.provider.GetTransaction(ctx, transactionID)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		return nil, apperror.New(apperror.KindInvalidTransaction, "unknown transaction %s", transactionID)
	}
	if err != nil {
		return nil, providerError(err, "get transaction")
	}

	return s.reconcile(ctx, txn, id.UserID, id.Email)
}

// reconcile turns a paid provider transaction into exactly one Order.
// expectedUser, when set, must match the user embedded in the custom data.
func (s *Service) reconcile(ctx context.Context, txn *payment.Transaction, expectedUser, fallbackEmail string) (*models.Order, error) {
	log := s.log.With().Str("provider_transaction_id", txn.ID).Logger()

	// 1. --- Idempotency check ---
	existing, err := s.store.FindByTransactionID(ctx, txn.ID)
	if err == nil {
		log.Info().Msg("transaction already reconciled, nothing to do")
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, err, "look up order")
	}

	// 2. --- Authenticity ---
	if txn.ID == "" {
		return nil, apperror.New(apperror.KindInvalidTransaction, "transaction has no id")
	}
	if !txn.Paid() {
		return nil, apperror.New(apperror.KindInvalidTransaction, "transaction %s is %q, not paid", txn.ID, txn.Status)
	}
	if txn.Totals.Currency == "" {
		return nil, apperror.New(apperror.KindInvalidTransaction, "transaction %s carries no totals", txn.ID)
	}

	// 3. --- Extract the purchase intent ---
	intent, err := models.DecodeIntent(txn.CustomData)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidTransaction, err, "transaction %s carries no usable purchase", txn.ID)
	}
	if expectedUser != "" && intent.UserID != expectedUser {
		return nil, apperror.New(apperror.KindInvalidTransaction, "transaction %s does not belong to caller", txn.ID)
	}

	// 4. --- Build the order ---
	token, err := s.newToken()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "generate access token")
	}
	display := txn.Totals.Display
	if display == "" {
		display = models.FormatPrice(txn.Totals.GrandTotal, txn.Totals.Currency)
	}
	order := models.Order{
		ID:                    uuid.NewString(),
		UserID:                intent.UserID,
		Lines:                 intent.OrderLines(),
		ProviderTransactionID: txn.ID,
		Origin:                intent.Origin,
		Currency:              txn.Totals.Currency,
		DisplayPrice:          display,
		PurchasePrice:         txn.Totals.GrandTotal,
		Status:                models.OrderCompleted,
		PurchasedAt:           s.now().UTC(),
		AccessToken:           &token,
	}

	// 5. --- Move stock, record purchase, clear cart, insert order: one unit ---
	saved, shortfalls, err := s.store.Fulfill(ctx, models.Fulfillment{
		Order:        order,
		Policy:       s.opts.OversellPolicy,
		AddPurchased: intent.Origin == models.OriginProduct,
		ClearCart:    intent.Origin == models.OriginCart,
	})
	if errors.Is(err, store.ErrDuplicateTransaction) {
		// lost the race to the other trigger; its order is the order
		log.Info().Msg("concurrent reconciliation won the insert, treating as no-op")
		existing, ferr := s.store.FindByTransactionID(ctx, txn.ID)
		if ferr != nil {
			return nil, apperror.Wrap(apperror.KindInternal, ferr, "reload order after duplicate")
		}
		return existing, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "fulfil transaction %s", txn.ID)
	}

	if len(shortfalls) > 0 {
		log.Warn().
			Str("order_id", saved.ID).
			Str("policy", string(s.opts.OversellPolicy)).
			Interface("shortfalls", shortfalls).
			Msg("oversold: paid quantity exceeded remaining stock, flagged for review")
		s.publish(ctx, events.EventOrderOversold, txn.ID, oversoldPayload(saved, s.opts.OversellPolicy, shortfalls))
	}
	log.Info().Str("order_id", saved.ID).Str("user_id", saved.UserID).Str("status", string(saved.Status)).Msg("order reconciled")

	// 6. --- After commit: events, pending marker, emails ---
	s.publish(ctx, events.EventOrderCompleted, txn.ID, completedPayload(saved))
	if s.pending != nil {
		if err := s.pending.Clear(ctx, txn.ID); err != nil {
			log.Warn().Err(err).Msg("clear pending marker")
		}
	}

	customerEmail := txn.CustomerEmail
	if customerEmail == "" {
		customerEmail = fallbackEmail
	}
	s.notify(ctx, saved, customerEmail)

	return saved, nil
}

// Refund marks the order for a refunded transaction. Unknown transactions are
// acknowledged; the provider may refund payments this system never reconciled.
func (s *Service) Refund(ctx context.Context, transactionID string) error {
	o, err := s.store.MarkRefunded(ctx, transactionID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Str("provider_transaction_id", transactionID).Msg("refund for unknown transaction")
		return nil
	}
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, err, "mark refunded")
	}
	s.log.Info().Str("provider_transaction_id", transactionID).Str("order_id", o.ID).Msg("order refunded")
	s.publish(ctx, events.EventOrderRefunded, transactionID, events.OrderRefundedPayload{
		OrderID: o.ID, TransactionID: transactionID, UserID: o.UserID,
	})
	return nil
}

// notify sends the customer confirmation and the admin notice in parallel.
// Failures are logged only; the order is already final.
func (s *Service) notify(ctx context.Context, o *models.Order, customerEmail string) {
	if s.mailer == nil {
		return
	}
	log := s.log.With().Str("provider_transaction_id", o.ProviderTransactionID).Str("order_id", o.ID).Logger()

	data := email.OrderEmail{
		OrderID:       o.ID,
		TransactionID: o.ProviderTransactionID,
		CustomerEmail: customerEmail,
		DisplayPrice:  o.DisplayPrice,
		PurchasedAt:   o.PurchasedAt,
		NeedsReview:   o.NeedsReview,
	}
	withNames := s.withProductDetails(ctx, []models.Order{*o})
	for _, l := range withNames[0].Lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		data.Items = append(data.Items, email.OrderEmailItem{Name: name, Quantity: l.Quantity})
	}

	var g errgroup.Group
	send := func(to string, forAdmin bool) {
		if to == "" {
			log.Warn().Bool("admin", forAdmin).Msg("no recipient for order email")
			return
		}
		d := data
		d.ForAdmin = forAdmin
		g.Go(func() error {
			msg, err := email.RenderOrderEmail(d)
			if err == nil {
				msg.To = to
				err = s.mailer.Send(ctx, msg)
			}
			if err != nil {
				log.Error().Err(err).Str("to", to).Bool("admin", forAdmin).Msg("order email failed")
			}
			return nil
		})
	}
	send(customerEmail, false)
	send(s.opts.AdminEmail, true)
	_ = g.Wait()
}

func completedPayload(o *models.Order) events.OrderCompletedPayload {
	items := make([]events.ItemQty, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, events.ItemQty{ProductID: l.ProductID, Qty: l.Quantity})
	}
	return events.OrderCompletedPayload{
		OrderID:       o.ID,
		TransactionID: o.ProviderTransactionID,
		UserID:        o.UserID,
		Origin:        string(o.Origin),
		Items:         items,
		AmountMinor:   o.PurchasePrice,
		Currency:      o.Currency,
		Status:        string(o.Status),
	}
}

func oversoldPayload(o *models.Order, policy models.OversellPolicy, shortfalls []models.StockShortfall) events.OrderOversoldPayload {
	details := make([]events.ShortfallDetail, 0, len(shortfalls))
	for _, sf := range shortfalls {
		details = append(details, events.ShortfallDetail{ProductID: sf.ProductID, Required: sf.Requested, Available: sf.Available})
	}
	return events.OrderOversoldPayload{
		OrderID:       o.ID,
		TransactionID: o.ProviderTransactionID,
		Policy:        string(policy),
		Details:       details,
	}
}
