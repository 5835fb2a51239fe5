package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound call to the provider.
const DefaultTimeout = 15 * time.Second

// Client talks to a Paddle-style transactions API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ Provider = (*Client)(nil)

// NewClient creates a provider client. A zero timeout means DefaultTimeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type createTransactionRequest struct {
	Items      []LineItem `json:"items"`
	Customer   *customer  `json:"customer,omitempty"`
	CustomData any        `json:"custom_data,omitempty"`
}

type customer struct {
	Email string `json:"email"`
}

type transactionEnvelope struct {
	Data transactionData `json:"data"`
}

type transactionData struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Checkout *struct {
		URL string `json:"url"`
	} `json:"checkout"`
	Customer *struct {
		Email string `json:"email"`
	} `json:"customer"`
	CustomData json.RawMessage `json:"custom_data"`
	Details    struct {
		Totals struct {
			GrandTotal   string `json:"grand_total"`
			CurrencyCode string `json:"currency_code"`
		} `json:"totals"`
		FormattedTotals struct {
			GrandTotal string `json:"grand_total"`
		} `json:"formatted_totals"`
	} `json:"details"`
	CurrencyCode string `json:"currency_code"`
}

type previewRequest struct {
	Items   []LineItem `json:"items"`
	Address struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

type previewEnvelope struct {
	Data struct {
		CurrencyCode string `json:"currency_code"`
		Details      struct {
			LineItems []struct {
				FormattedTotals struct {
					Total string `json:"total"`
				} `json:"formatted_totals"`
				Totals struct {
					Total string `json:"total"`
				} `json:"totals"`
			} `json:"line_items"`
		} `json:"details"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

// CreateTransaction opens a hosted checkout for the given line items.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	body := createTransactionRequest{Items: req.Items, CustomData: req.CustomData}
	if req.CustomerEmail != "" {
		body.Customer = &customer{Email: req.CustomerEmail}
	}

	var env transactionEnvelope
	if err := c.do(ctx, "create transaction", http.MethodPost, "/transactions", body, &env); err != nil {
		return nil, err
	}
	if env.Data.ID == "" {
		return nil, &ProviderError{Operation: "create transaction", StatusCode: http.StatusOK, Detail: "response carried no transaction id"}
	}
	txn, err := env.Data.toTransaction()
	if err != nil {
		return nil, &ProviderError{Operation: "create transaction", StatusCode: http.StatusOK, Err: err}
	}
	return txn, nil
}

// GetTransaction fetches a transaction by id. Unknown ids return ErrTransactionNotFound.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	var env transactionEnvelope
	if err := c.do(ctx, "get transaction", http.MethodGet, "/transactions/"+url.PathEscape(transactionID), nil, &env); err != nil {
		return nil, err
	}
	txn, err := env.Data.toTransaction()
	if err != nil {
		return nil, &ProviderError{Operation: "get transaction", StatusCode: http.StatusOK, Err: err}
	}
	return txn, nil
}

// PreviewPrice asks the provider for the localized price of one unit.
func (c *Client) PreviewPrice(ctx context.Context, priceRef, country string) (*PriceQuote, error) {
	body := previewRequest{Items: []LineItem{{PriceID: priceRef, Quantity: 1}}}
	body.Address.CountryCode = strings.ToUpper(country)

	var env previewEnvelope
	if err := c.do(ctx, "price preview", http.MethodPost, "/pricing-preview", body, &env); err != nil {
		return nil, err
	}
	if len(env.Data.Details.LineItems) == 0 {
		return nil, &ProviderError{Operation: "price preview", StatusCode: http.StatusOK, Detail: "preview carried no line items"}
	}

	li := env.Data.Details.LineItems[0]
	amount, err := strconv.ParseInt(li.Totals.Total, 10, 64)
	if err != nil {
		return nil, &ProviderError{Operation: "price preview", Err: fmt.Errorf("parse total %q: %w", li.Totals.Total, err)}
	}
	return &PriceQuote{
		Amount:       amount,
		Currency:     env.Data.CurrencyCode,
		DisplayPrice: li.FormattedTotals.Total,
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &ProviderError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return ErrTransactionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := &ProviderError{Operation: op, StatusCode: resp.StatusCode}
		var errResp errorEnvelope
		if json.Unmarshal(respBody, &errResp) == nil {
			pe.Code = errResp.Error.Code
			pe.Detail = errResp.Error.Detail
		}
		return pe
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProviderError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// toTransaction maps the wire shape. grand_total is a string of minor units;
// it may be absent (events without totals) but never malformed.
func (d transactionData) toTransaction() (*Transaction, error) {
	t := &Transaction{
		ID:         d.ID,
		Status:     d.Status,
		CustomData: d.CustomData,
		Totals: Totals{
			Currency: d.Details.Totals.CurrencyCode,
			Display:  d.Details.FormattedTotals.GrandTotal,
		},
	}
	if t.Totals.Currency == "" {
		t.Totals.Currency = d.CurrencyCode
	}
	if d.Checkout != nil {
		t.CheckoutURL = d.Checkout.URL
	}
	if d.Customer != nil {
		t.CustomerEmail = d.Customer.Email
	}
	if gt := d.Details.Totals.GrandTotal; gt != "" {
		n, err := strconv.ParseInt(gt, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: grand_total %q is not an integer amount of minor units", d.ID, gt)
		}
		t.Totals.GrandTotal = n
	}
	return t, nil
}
