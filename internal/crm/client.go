// Package crm is a read-only client for the CRM REST webhook API.
//
// List methods page through results with the "start" offset, pause between
// pages, and retry on rate limiting. They return whatever was fetched so far
// together with any error, so a caller can persist a partial run.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	errorQueryLimitExceeded = "QUERY_LIMIT_EXCEEDED"

	maxResponseBytes = 32 << 20
)

var (
	// ErrRateLimited is returned when the CRM keeps throttling after every retry.
	ErrRateLimited = errors.New("crm rate limit exceeded")
	// ErrUnavailable is returned when the CRM keeps failing after every retry.
	ErrUnavailable = errors.New("crm unavailable")
)

// APIError is an error reported in a CRM response body.
type APIError struct {
	Method      string
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("crm %s: %s (%s, status %d)", e.Method, e.Code, e.Description, e.Status)
	}
	return fmt.Sprintf("crm %s: %s (status %d)", e.Method, e.Code, e.Status)
}

// Options tune paging and retry behavior.
type Options struct {
	PageSize           int
	MaxPages           int
	MaxPagesActivities int
	PageDelay          time.Duration
	RateLimitDelay     time.Duration
	QueryLimitDelay    time.Duration
	// RetryBackoff is the first wait after a transport failure or 5xx
	// response. It doubles on each retry up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	MaxRetries      int
	Timeout         time.Duration
}

// DefaultOptions returns the production paging and retry settings.
func DefaultOptions() Options {
	return Options{
		PageSize:           50,
		MaxPages:           35,
		MaxPagesActivities: 40,
		PageDelay:          400 * time.Millisecond,
		RateLimitDelay:     2 * time.Second,
		QueryLimitDelay:    1500 * time.Millisecond,
		RetryBackoff:       time.Second,
		MaxRetryBackoff:    10 * time.Second,
		MaxRetries:         3,
		Timeout:            30 * time.Second,
	}
}

// Client calls list methods on a CRM inbound webhook.
type Client struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithSleeper replaces the context-aware sleep used between pages.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// NewClient creates a client for the webhook base URL, e.g.
// https://example.bitrix24.com/rest/1/abcdef/.
func NewClient(baseURL string, opts Options, logger *zap.Logger, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("crm webhook url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid crm webhook url %q", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	defaults := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaults.MaxPages
	}
	if opts.MaxPagesActivities <= 0 {
		opts.MaxPagesActivities = defaults.MaxPagesActivities
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaults.RetryBackoff
	}
	if opts.MaxRetryBackoff < opts.RetryBackoff {
		opts.MaxRetryBackoff = max(defaults.MaxRetryBackoff, opts.RetryBackoff)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     logger,
		sleep:      sleepContext,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Page is the accumulated result of a paginated list call.
type Page[T any] struct {
	Items []T
	Pages int
	// HasMore is set when the page bound stopped the listing early.
	HasMore   bool
	NextStart int
}

// ListRequest describes one paginated list call.
type ListRequest struct {
	Method   string
	Params   url.Values
	Start    int
	MaxPages int
}

type envelope[T any] struct {
	Result           []T    `json:"result"`
	Next             *int   `json:"next"`
	Total            int    `json:"total"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ListLeads returns every lead.
func (c *Client) ListLeads(ctx context.Context) (*Page[LeadRecord], error) {
	return List[LeadRecord](ctx, c, ListRequest{
		Method:   "crm.lead.list",
		Params:   selectParams(leadFields),
		MaxPages: c.opts.MaxPages,
	})
}

// ListDeals returns every deal.
func (c *Client) ListDeals(ctx context.Context) (*Page[DealRecord], error) {
	return List[DealRecord](ctx, c, ListRequest{
		Method:   "crm.deal.list",
		Params:   selectParams(dealFields),
		MaxPages: c.opts.MaxPages,
	})
}

// ListQuotes returns every quote.
func (c *Client) ListQuotes(ctx context.Context) (*Page[QuoteRecord], error) {
	return List[QuoteRecord](ctx, c, ListRequest{
		Method:   "crm.quote.list",
		Params:   selectParams(quoteFields),
		MaxPages: c.opts.MaxPages,
	})
}

// ListActivities returns lead and deal activities, newest first. A non-nil
// since keeps only activities created after that day.
func (c *Client) ListActivities(ctx context.Context, since *time.Time) (*Page[ActivityRecord], error) {
	params := selectParams(activityFields)
	params.Set("filter[OWNER_TYPE_ID][0]", "1")
	params.Set("filter[OWNER_TYPE_ID][1]", "2")
	if since != nil {
		params.Set("filter[>CREATED]", since.Format("2006-01-02"))
	}
	params.Set("order[ID]", "DESC")
	return List[ActivityRecord](ctx, c, ListRequest{
		Method:   "crm.activity.list",
		Params:   params,
		MaxPages: c.opts.MaxPagesActivities,
	})
}

// ListUsers returns the active users.
func (c *Client) ListUsers(ctx context.Context) (*Page[UserRecord], error) {
	params := url.Values{}
	params.Set("ACTIVE", "true")
	return List[UserRecord](ctx, c, ListRequest{
		Method:   "user.get",
		Params:   params,
		MaxPages: c.opts.MaxPages,
	})
}

// ListSources returns the lead source dictionary.
func (c *Client) ListSources(ctx context.Context) (*Page[SourceRecord], error) {
	params := url.Values{}
	params.Set("filter[ENTITY_ID]", "SOURCE")
	return List[SourceRecord](ctx, c, ListRequest{
		Method:   "crm.status.list",
		Params:   params,
		MaxPages: c.opts.MaxPages,
	})
}

// List pages through a list method until a short page, a missing "next"
// cursor or the page bound.
func List[T any](ctx context.Context, c *Client, req ListRequest) (*Page[T], error) {
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = c.opts.MaxPages
	}

	page := &Page[T]{}
	start := req.Start
	for page.Pages < maxPages {
		params := cloneValues(req.Params)
		params.Set("start", strconv.Itoa(start))

		env, err := fetchPage[T](ctx, c, req.Method, params)
		if err != nil {
			page.NextStart = start
			return page, err
		}
		if len(env.Result) == 0 {
			return page, nil
		}

		page.Items = append(page.Items, env.Result...)
		page.Pages++
		if env.Next != nil {
			start = *env.Next
		} else {
			start += c.opts.PageSize
		}

		c.logger.Debug("CRM page fetched",
			zap.String("method", req.Method),
			zap.Int("page", page.Pages),
			zap.Int("items", len(env.Result)),
			zap.Int("total", env.Total),
		)

		if len(env.Result) < c.opts.PageSize || env.Next == nil {
			return page, nil
		}
		if page.Pages >= maxPages {
			break
		}
		if err := c.sleep(ctx, c.opts.PageDelay); err != nil {
			page.NextStart = start
			return page, err
		}
	}

	page.HasMore = true
	page.NextStart = start
	c.logger.Warn("CRM listing stopped at page bound",
		zap.String("method", req.Method),
		zap.Int("pages", page.Pages),
		zap.Int("next_start", start),
	)
	return page, nil
}

// fetchPage performs one list call, waiting and retrying on throttling and
// transient failures.
func fetchPage[T any](ctx context.Context, c *Client, method string, params url.Values) (*envelope[T], error) {
	var (
		env     *envelope[T]
		lastErr error
	)

	err := retry.Do(ctx, c.backoff(method, &lastErr), func(ctx context.Context) error {
		var err error
		env, err = doRequest[T](ctx, c, method, params)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
		return retry.RetryableError(err)
	})
	switch {
	case err == nil:
		return env, nil
	case !isRetryable(err):
		return nil, err
	case errors.Is(err, errThrottled) || errors.Is(err, errQueryLimit):
		return nil, fmt.Errorf("crm %s after %d retries: %w", method, c.opts.MaxRetries, ErrRateLimited)
	default:
		return nil, fmt.Errorf("crm %s after %d retries: %w: %v", method, c.opts.MaxRetries, ErrUnavailable, err)
	}
}

// backoff picks the wait before each retry from the last failure: the fixed
// throttling delays for HTTP 429 and QUERY_LIMIT_EXCEEDED, and a capped
// exponential backoff otherwise.
func (c *Client) backoff(method string, lastErr *error) retry.Backoff {
	attempt := 0
	transient := retry.WithCappedDuration(c.opts.MaxRetryBackoff, retry.NewExponential(c.opts.RetryBackoff))
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		var wait time.Duration
		switch {
		case errors.Is(*lastErr, errThrottled):
			wait = c.opts.RateLimitDelay
		case errors.Is(*lastErr, errQueryLimit):
			wait = c.opts.QueryLimitDelay
		default:
			wait, _ = transient.Next()
		}
		attempt++
		c.logger.Warn("Retrying CRM request",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(*lastErr),
		)
		return wait, false
	})
	return retry.WithMaxRetries(uint64(c.opts.MaxRetries), next)
}

var (
	errThrottled  = errors.New("http 429")
	errQueryLimit = errors.New(errorQueryLimitExceeded)
	errTransient  = errors.New("transient failure")
)

func isRetryable(err error) bool {
	return errors.Is(err, errThrottled) || errors.Is(err, errQueryLimit) || errors.Is(err, errTransient)
}

func doRequest[T any](ctx context.Context, c *Client, method string, params url.Values) (*envelope[T], error) {
	endpoint := c.baseURL + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errThrottled
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errTransient, err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(body, &env)
	if decodeErr == nil && env.Error == errorQueryLimitExceeded {
		return nil, errQueryLimit
	}
	if resp.StatusCode >= http.StatusInternalServerError && (decodeErr != nil || env.Error == "") {
		return nil, fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	}
	if decodeErr == nil && env.Error != "" {
		return nil, &APIError{Method: method, Status: resp.StatusCode, Code: env.Error, Description: env.ErrorDescription}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Method: method, Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode crm %s response: %w", method, decodeErr)
	}
	return &env, nil
}

func selectParams(fields []string) url.Values {
	params := url.Values{}
	for i, f := range fields {
		params.Set(fmt.Sprintf("select[%d]", i), f)
	}
	return params
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+1)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
