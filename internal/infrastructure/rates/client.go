package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"moneyflow/internal/domain/money"
)

const (
	DefaultPrimaryURL  = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@{date}"
	DefaultFallbackURL = "https://{date}.currency-api.pages.dev"
	defaultTimeout     = 10 * time.Second
	datePlaceholder    = "{date}"
	maxBodyBytes       = 4 << 20
)

var (
	rateMeter      = otel.Meter("moneyflow/rates")
	rateLookups, _ = rateMeter.Int64Counter("rates.lookup.total", metric.WithDescription("Exchange rate lookups by provider and outcome"))
)

// Client fetches daily rates from the public currency API, falling back to a
// mirror when the primary provider fails.
type Client struct {
	httpClient  *http.Client
	primaryURL  string
	fallbackURL string
}

var _ money.RateSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithURLs overrides the provider URL templates. Each must contain {date}.
func WithURLs(primary, fallback string) Option {
	return func(c *Client) {
		if primary != "" {
			c.primaryURL = primary
		}
		if fallback != "" {
			c.fallbackURL = fallback
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a rate client with instrumented transport.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		primaryURL:  DefaultPrimaryURL,
		fallbackURL: DefaultFallbackURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate returns how many units of to one unit of from buys on the given date.
// The fallback provider is tried exactly once when the primary fails.
func (c *Client) Rate(ctx context.Context, from, to string, on money.EffectiveDate) (decimal.Decimal, error) {
	from, to = strings.ToLower(from), strings.ToLower(to)

	rate, primaryErr := c.fetch(ctx, c.primaryURL, from, to, on)
	c.record(ctx, "primary", primaryErr)
	if primaryErr == nil {
		return rate, nil
	}
	log.Warn("primary rate provider failed, trying fallback", "from", from, "to", to, "date", on.String(), "err", primaryErr)

	rate, fallbackErr := c.fetch(ctx, c.fallbackURL, from, to, on)
	c.record(ctx, "fallback", fallbackErr)
	if fallbackErr == nil {
		return rate, nil
	}

	return decimal.Zero, &money.RateUnavailableError{
		From: strings.ToUpper(from),
		To:   strings.ToUpper(to),
		Date: on,
		Err:  errors.Join(fmt.Errorf("primary: %w", primaryErr), fmt.Errorf("fallback: %w", fallbackErr)),
	}
}

func (c *Client) fetch(ctx context.Context, template, from, to string, on money.EffectiveDate) (decimal.Decimal, error) {
	url := strings.TrimRight(strings.ReplaceAll(template, datePlaceholder, on.String()), "/") +
		"/v1/currencies/" + from + ".min.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return decodeRate(io.LimitReader(resp.Body, maxBodyBytes), from, to)
}

// decodeRate reads a {"date": ..., "<from>": {"<to>": n, ...}} document.
func decodeRate(r io.Reader, from, to string) (decimal.Decimal, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	raw, ok := doc[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("response has no table for %s", from)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var table map[string]json.Number
	if err := dec.Decode(&table); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode %s table: %w", from, err)
	}

	n, ok := table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("pair %s->%s not published", from, to)
	}
	rate, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q: %w", n.String(), err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s for %s->%s", rate, from, to)
	}
	return rate, nil
}

func (c *Client) record(ctx context.Context, provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	rateLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}
