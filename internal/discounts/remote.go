package discounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultRetryBase       = 100 * time.Millisecond
	responseBodyReadLimit  = 1024
	discountByCodeEndpoint = "discounts/code"
)

var errBaseURLRequired = errors.New("discount service base url is required")

// RemoteClient looks discounts up in the backend REST API.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
}

// Option configures optional client behavior.
type Option func(*RemoteClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *RemoteClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each lookup, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *RemoteClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many times a failed lookup is retried and the first backoff step.
func WithRetries(max uint64, base time.Duration) Option {
	return func(c *RemoteClient) {
		c.maxRetries = max
		if base > 0 {
			c.retryBase = base
		}
	}
}

// NewRemoteClient builds a client for the backend at baseURL.
func NewRemoteClient(baseURL string, opts ...Option) (*RemoteClient, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &RemoteClient{
		baseURL:    trimmed,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		retryBase:  defaultRetryBase,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FindByCode calls GET {base}/discounts/code/{code}. A 404 yields ErrNotFound; transport
// failures and 5xx responses are retried with exponential backoff.
func (c *RemoteClient) FindByCode(ctx context.Context, code string) (Discount, error) {
	if c == nil {
		return Discount{}, pkgerrors.New(pkgerrors.CodeDependency, "discount client not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Discount{}, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, discountByCodeEndpoint, url.PathEscape(trimmed))
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	var dto DiscountDTO
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		dto, err = c.fetch(ctx, endpoint)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return Discount{}, ErrNotFound
	}
	if err != nil {
		return Discount{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discount lookup failed")
	}

	discount := dto.ToDiscount()
	if discount.Code == "" {
		discount.Code = trimmed
	}
	return discount, nil
}

func (c *RemoteClient) fetch(ctx context.Context, endpoint string) (DiscountDTO, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DiscountDTO{}, fmt.Errorf("build discount request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DiscountDTO{}, retry.RetryableError(fmt.Errorf("execute discount request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return DiscountDTO{}, ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return DiscountDTO{}, retry.RetryableError(statusError(resp))
	case resp.StatusCode != http.StatusOK:
		return DiscountDTO{}, statusError(resp)
	}

	var dto DiscountDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return DiscountDTO{}, fmt.Errorf("decode discount response: %w", err)
	}
	return dto, nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
