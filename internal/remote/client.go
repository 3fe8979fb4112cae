// Package remote implements book.Repository over the books REST API.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booklibrary/internal/book"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "booklibrary-client/1.0"
	maxResponseBytes = 4 << 20
)

// TransportError is a failure to reach the API or a server-side failure.
// These are the errors worth retrying.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("remote %s: unexpected status %d", e.Op, e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a client error reported by the API that has no domain sentinel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsTransient reports whether err came from the transport or a 5xx/429 response.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details []book.FieldError `json:"details"`
	} `json:"error"`
}

// Client talks to a books API rooted at baseURL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit caps outgoing requests. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(u.String(), "/"),
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ book.Repository = (*Client)(nil)

func (c *Client) List(ctx context.Context) ([]book.Book, error) {
	var books []book.Book
	if err := c.do(ctx, "list", http.MethodGet, "/books", nil, &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []book.Book{}
	}
	return books, nil
}

func (c *Client) Get(ctx context.Context, id string) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, "get "+id, http.MethodGet, bookPath(id), nil, &b)
	return b, err
}

func (c *Client) Create(ctx context.Context, f book.Fields) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, "create", http.MethodPost, "/books", f, &b)
	return b, err
}

func (c *Client) Update(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, "update "+id, http.MethodPut, bookPath(id), p, &b)
	return b, err
}

func (c *Client) Delete(ctx context.Context, id string) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, "delete "+id, http.MethodDelete, bookPath(id), nil, &b)
	return b, err
}

// Stats fetches the server-side summary.
func (c *Client) Stats(ctx context.Context) (book.Stats, error) {
	var s book.Stats
	err := c.do(ctx, "stats", http.MethodGet, "/books/stats", nil, &s)
	return s, err
}

func bookPath(id string) string {
	return "/books/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("remote %s: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("remote request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("remote %s: %w", op, book.ErrNotFound)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return apiError(op, resp.StatusCode, env)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("remote %s: decode data: %w", op, err)
	}
	return nil
}

func apiError(op string, status int, env envelope) error {
	code, message := "", http.StatusText(status)
	if env.Error != nil {
		code, message = env.Error.Code, env.Error.Message
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("remote %s: %w", op, book.ErrNotFound)
	case status == http.StatusBadRequest && code == "VALIDATION_ERROR":
		fields := []book.FieldError{{Message: message}}
		if env.Error != nil && len(env.Error.Details) > 0 {
			fields = env.Error.Details
		}
		return &book.ValidationError{Fields: fields}
	default:
		return &APIError{StatusCode: status, Code: code, Message: message}
	}
}
