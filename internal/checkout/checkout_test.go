package checkout

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/01moynul/recipeshop-checkout/internal/memstore"
	"github.com/01moynul/recipeshop-checkout/internal/mocks"
	"github.com/01moynul/recipeshop-checkout/internal/models"
	"github.com/01moynul/recipeshop-checkout/internal/payment"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakePending struct {
	mu     sync.Mutex
	owners map[string]string
	err    error
}

func (f *fakePending) MarkPending(_ context.Context, txnID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[txnID] = userID
	return nil
}

func (f *fakePending) PendingOwner(_ context.Context, txnID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	u, ok := f.owners[txnID]
	return u, ok, nil
}

func (f *fakePending) Clear(_ context.Context, txnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.owners, txnID)
	return nil
}

type published struct {
	eventType     string
	correlationID string
	payload       any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingPublisher) Publish(_ context.Context, eventType, correlationID string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{eventType, correlationID, payload})
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.eventType)
	}
	return out
}

type fixture struct {
	svc      *Service
	store    *memstore.Store
	provider *mocks.MockProvider
	mailer   *mocks.MockSender
	pending  *fakePending
	events   *recordingPublisher
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:    memstore.New(),
		provider: mocks.NewMockProvider(ctrl),
		mailer:   mocks.NewMockSender(ctrl),
		pending:  &fakePending{owners: map[string]string{}},
		events:   &recordingPublisher{},
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin@example.com"
	}
	f.svc = New(Deps{
		Store:    f.store,
		Provider: f.provider,
		Mailer:   f.mailer,
		Events:   f.events,
		Pending:  f.pending,
		Log:      zerolog.Nop(),
	}, opts)
	return f
}

func (f *fixture) product(id string, stock int) {
	f.store.PutProduct(models.Product{
		ID:              id,
		Name:            "Product " + id,
		ProviderPriceID: "pri_" + id,
		UnitPrice:       decimal.RequireFromString("12.50"),
		Currency:        "USD",
		TotalStock:      stock,
		RemainingStock:  stock,
	})
}

func (f *fixture) remaining(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.RemainingStock
}

func paidTxn(t *testing.T, txnID string, intent models.PurchaseIntent) *payment.Transaction {
	t.Helper()
	raw, err := json.Marshal(intent)
	require.NoError(t, err)
	return &payment.Transaction{
		ID:            txnID,
		Status:        payment.StatusCompleted,
		CustomerEmail: "buyer@example.com",
		CustomData:    raw,
		Totals:        payment.Totals{GrandTotal: 1250, Currency: "USD"},
	}
}

func completedEvent(t *testing.T, txnID string, intent models.PurchaseIntent) *payment.Event {
	return &payment.Event{EventID: "evt_" + txnID, EventType: payment.EventTransactionCompleted, Transaction: *paidTxn(t, txnID, intent)}
}

func singleIntent(userID, productID string, qty int) models.PurchaseIntent {
	return models.PurchaseIntent{
		UserID: userID,
		Origin: models.OriginProduct,
		Lines:  []models.PurchaseLine{{ProductID: productID, Quantity: qty, PriceRef: "pri_" + productID}},
	}
}
