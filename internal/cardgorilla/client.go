// Package cardgorilla interfaces with the upstream card catalog API.
//
// Every call goes through the same bounded retry policy: up to MaxAttempts
// tries with a linearly increasing delay (BaseDelay × attempt number) between
// them. Malformed payloads are never retried.
package cardgorilla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.card-gorilla.com:8080/v1"
	defaultTimeout = 30 * time.Second

	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client interfaces with the card catalog API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	baseDelay   time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRetry overrides the attempt ceiling and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		c.baseDelay = baseDelay
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// NewClient creates a new card catalog API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultBaseURL,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RankingOptions selects which ranking view to fetch.
type RankingOptions struct {
	Term   string // daily, weekly, monthly
	CardGb string // CRD (credit), CHK (check)
	Limit  int
	Chart  string // e.g. top100
}

func (o RankingOptions) withDefaults() RankingOptions {
	if o.Term == "" {
		o.Term = "weekly"
	}
	if o.CardGb == "" {
		o.CardGb = "CRD"
	}
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Chart == "" {
		o.Chart = "top100"
	}
	return o
}

// ListOptions selects a page of the full catalog.
type ListOptions struct {
	Page   int
	Limit  int
	CardGb string
	Sort   string
	Order  string
}

func (o ListOptions) withDefaults() ListOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.CardGb == "" {
		o.CardGb = "CRD"
	}
	if o.Sort == "" {
		o.Sort = "ranking"
	}
	if o.Order == "" {
		o.Order = "asc"
	}
	return o
}

// SearchOptions scopes a free-text search.
type SearchOptions struct {
	Page   int
	Limit  int
	CardGb string
}

// Ranking fetches the ranked card snapshot. The payload must be a top-level
// sequence; anything else is a MalformedResponseError.
func (c *Client) Ranking(ctx context.Context, opts RankingOptions) ([]map[string]any, error) {
	opts = opts.withDefaults()
	params := url.Values{}
	params.Set("term", opts.Term)
	params.Set("card_gb", opts.CardGb)
	params.Set("limit", strconv.Itoa(opts.Limit))
	params.Set("chart", opts.Chart)

	return c.getList(ctx, "/charts/ranking", params)
}

// CardDetail fetches a single card record by its upstream identity.
func (c *Client) CardDetail(ctx context.Context, cardIdx int) (map[string]any, error) {
	return c.getObject(ctx, fmt.Sprintf("/cards/%d", cardIdx), nil)
}

// Cards fetches one page of the full catalog.
func (c *Client) Cards(ctx context.Context, opts ListOptions) ([]map[string]any, error) {
	opts = opts.withDefaults()
	params := url.Values{}
	params.Set("page", strconv.Itoa(opts.Page))
	params.Set("limit", strconv.Itoa(opts.Limit))
	params.Set("card_gb", opts.CardGb)
	params.Set("sort", opts.Sort)
	params.Set("order", opts.Order)

	return c.getList(ctx, "/cards", params)
}

// Search runs a free-text card search.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]map[string]any, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.CardGb == "" {
		opts.CardGb = "CRD"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(opts.Page))
	params.Set("limit", strconv.Itoa(opts.Limit))
	params.Set("card_gb", opts.CardGb)

	return c.getList(ctx, "/cards/search", params)
}

// Brands fetches the payment-network list.
func (c *Client) Brands(ctx context.Context) ([]map[string]any, error) {
	return c.getList(ctx, "/brands", nil)
}

// Corps fetches the issuing-company list.
func (c *Client) Corps(ctx context.Context) ([]map[string]any, error) {
	return c.getList(ctx, "/corps", nil)
}

// getList fetches an endpoint whose payload must be a top-level sequence.
func (c *Client) getList(ctx context.Context, path string, params url.Values) ([]map[string]any, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Endpoint: path, Expected: "JSON sequence"}
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, &MalformedResponseError{Endpoint: path, Expected: "sequence"}
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{Endpoint: path, Expected: "sequence of objects"}
		}
		records = append(records, record)
	}
	return records, nil
}

// getObject fetches an endpoint whose payload must be a single object.
func (c *Client) getObject(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Endpoint: path, Expected: "JSON object"}
	}
	record, ok := payload.(map[string]any)
	if !ok {
		return nil, &MalformedResponseError{Endpoint: path, Expected: "object"}
	}
	return record, nil
}

// get performs the request under the shared retry policy. The backoff is an
// iterative bounded loop with a pure delay function; the attempt ceiling is
// never tied to recursion depth.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay(attempt - 1)):
			}
		}

		body, err := c.doGet(ctx, path, params)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &TransientError{Attempts: c.maxAttempts, Err: lastErr}
}

// retryDelay is the linear backoff: baseDelay × number of failed attempts.
func (c *Client) retryDelay(failedAttempts int) time.Duration {
	return c.baseDelay * time.Duration(failedAttempts)
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNetwork, err)
	}
	return body, nil
}

// isRetryable reports whether the failure is worth another attempt: transport
// errors and 5xx/429 responses are, anything else fails the call outright.
func isRetryable(err error) bool {
	if errors.Is(err, errNetwork) {
		return true
	}
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
