package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/lokapasar/checkout/pkg/config"
	"github.com/lokapasar/checkout/pkg/enums"
	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
	"github.com/lokapasar/checkout/pkg/logger"
)

const errorBodyReadLimit int64 = 1024

var errBaseURLRequired = errors.New("commerce base URL is required")

// Client wraps the upstream commerce API consumed by the checkout flow.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	bearerToken   string
	logg          *logger.Logger
	retryAttempts uint64
	retryBase     time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBearerToken sets a default bearer token for upstream requests.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearerToken = strings.TrimSpace(token)
	}
}

type tokenCtxKey struct{}

// ContextWithToken carries a caller's bearer token for a single request chain.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, strings.TrimSpace(token))
}

// NewClient builds the commerce API client.
func NewClient(cfg config.CommerceConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		logg:          logg,
		retryAttempts: uint64(attempts - 1),
		retryBase:     baseDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ListAddresses fetches the buyer's saved destinations.
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if err := c.do(ctx, http.MethodGet, "user/addresses", nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// CalculateShipping requests shipping options for one seller's items and
// returns them sorted ascending by cost. An empty result from the rate API
// is surfaced as a typed error, never as a silent success.
func (c *Client) CalculateShipping(ctx context.Context, req ShippingQuoteRequest) ([]ShippingOption, error) {
	if strings.TrimSpace(req.SellerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if strings.TrimSpace(req.AddressID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var resp struct {
		ShippingOptions []ShippingOption `json:"shipping_options"`
	}
	err := c.withRetry(ctx, func(ctx context.Context) error {
		resp.ShippingOptions = nil
		return c.do(ctx, http.MethodPost, "shipping/calculate", req, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.ShippingOptions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipping options available for this destination")
	}

	options := append([]ShippingOption(nil), resp.ShippingOptions...)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].CostIDR < options[j].CostIDR
	})
	return options, nil
}

// SubmitMultiCheckout submits every seller group in one atomic call and
// returns the invoice code. Never retried: a duplicate submission would
// create a duplicate order.
func (c *Client) SubmitMultiCheckout(ctx context.Context, purchaseCode string, req MultiCheckoutRequest) (string, error) {
	if strings.TrimSpace(purchaseCode) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "purchase code is required")
	}
	if len(req.Stores) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "at least one store group is required")
	}
	if !req.PaymentMethod.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	var resp struct {
		InvoiceCode string `json:"invoice_code"`
	}
	path := fmt.Sprintf("purchases/%s/multi-checkout", url.PathEscape(purchaseCode))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.InvoiceCode) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout accepted but no invoice code returned")
	}
	return resp.InvoiceCode, nil
}

// GetInvoice fetches the invoice snapshot for a payment code.
func (c *Client) GetInvoice(ctx context.Context, code string) (*Invoice, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice code is required")
	}
	var invoice Invoice
	path := fmt.Sprintf("payments/%s", url.PathEscape(code))
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, nil, &invoice)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetPaymentStatus performs one idempotent read of the payment status.
func (c *Client) GetPaymentStatus(ctx context.Context, code string) (enums.PaymentStatus, error) {
	if strings.TrimSpace(code) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invoice code is required")
	}
	var resp struct {
		StatusPembayaran string `json:"status_pembayaran"`
	}
	path := fmt.Sprintf("payments/%s/status", url.PathEscape(code))
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return "", err
	}
	status, parseErr := enums.ParsePaymentStatus(resp.StatusPembayaran)
	if parseErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, parseErr, "unrecognized payment status")
	}
	return status, nil
}

// ProcessPayment requests a one-time snap token for the invoice. A response
// carrying neither token nor redirect URL means the gateway is unusable.
func (c *Client) ProcessPayment(ctx context.Context, code string) (*SnapSession, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice code is required")
	}
	var session SnapSession
	path := fmt.Sprintf("payments/%s/process", url.PathEscape(code))
	if err := c.do(ctx, http.MethodPost, path, nil, &session); err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.Token) == "" && strings.TrimSpace(session.RedirectURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "gateway returned no usable token or redirect URL")
	}
	return &session, nil
}

// withRetry applies capped exponential backoff to idempotent calls,
// retrying only transport-level failures.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if pkgerrors.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		c.warn(ctx, fmt.Sprintf("commerce %s %s rejected", method, path), cause)
		return pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, fmt.Sprintf("%s %s rejected", method, path))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if ctx != nil {
		if token, ok := ctx.Value(tokenCtxKey{}).(string); ok && token != "" {
			return token
		}
	}
	return c.bearerToken
}

func (c *Client) warn(ctx context.Context, msg string, err error) {
	if c == nil || c.logg == nil {
		return
	}
	c.logg.Error(ctx, msg, err)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return pkgerrors.CodeStateConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
