// Package checkout holds the checkout and order reconciliation flow:
// stock reads and restocks, the cart, transaction initiation, confirmation
// reconciliation, one-time order access and localized price previews.
package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/01moynul/recipeshop-checkout/internal/email"
	"github.com/01moynul/recipeshop-checkout/internal/events"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/01moynul/recipeshop-checkout/internal/store"
	"github.com/rs/zerolog"
)

// PendingTracker remembers which user a not-yet-reconciled transaction was issued to.
type PendingTracker interface {
	MarkPending(ctx context.Context, transactionID, userID string) error
	PendingOwner(ctx context.Context, transactionID string) (userID string, ok bool, err error)
	Clear(ctx context.Context, transactionID string) error
}

// Deps are the collaborators of the checkout core.
// Events and Pending are optional.
type Deps struct {
	Store    store.Store
	Provider payment.Provider
	Mailer   email.Sender
	Events   events.Publisher
	Pending  PendingTracker
	Log      zerolog.Logger
}

type Options struct {
	DefaultCountry   string
	OversellPolicy   models.OversellPolicy
	AccessTokenBytes int
	AdminEmail       string
}

type Service struct {
	store    store.Store
	provider payment.Provider
	mailer   email.Sender
	events   events.Publisher
	pending  PendingTracker
	log      zerolog.Logger
	opts     Options

	now      func() time.Time
	newToken func() (string, error)
}

func New(d Deps, o Options) *Service {
	if o.DefaultCountry == "" {
		o.DefaultCountry = "US"
	}
	if o.OversellPolicy == "" {
		o.OversellPolicy = models.OversellTolerate
	}
	if o.AccessTokenBytes <= 0 {
		o.AccessTokenBytes = 32
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	s := &Service{
		store:    d.Store,
		provider: d.Provider,
		mailer:   d.Mailer,
		events:   d.Events,
		pending:  d.Pending,
		log:      d.Log.With().Str("component", "checkout").Logger(),
		opts:     o,
		now:      time.Now,
	}
	s.newToken = func() (string, error) { return randomToken(s.opts.AccessTokenBytes) }
	return s
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// product loads one product, translating the store's not-found.
func (s *Service) product(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "product id is required")
	}
	p, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "product %s not found", productID)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, err, "load product %s", productID)
	}
	return p, nil
}

func (s *Service) country(id models.Identity) string {
	if id.Country != "" {
		return id.Country
	}
	return s.opts.DefaultCountry
}

// publish never fails the caller; the bus is best effort.
func (s *Service) publish(ctx context.Context, eventType, transactionID string, payload any) {
	if err := s.events.Publish(ctx, eventType, transactionID, payload); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Str("provider_transaction_id", transactionID).
			Msg("publish order event")
	}
}
