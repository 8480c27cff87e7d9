package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"phonebook/internal/contact"
)

// =============================================================================
// REST CLIENT
// =============================================================================

const maxErrorBody = 4 << 10

// BreakerSettings configures the circuit breaker in front of every call.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the breaker used when none is configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "phonebook-gateway",
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Client is the REST implementation of Gateway.
type Client struct {
	baseURL  string
	http     *http.Client
	settings BreakerSettings
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

var _ Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) { c.settings = s }
}

// New creates a client for the collection at baseURL (e.g.
// http://localhost:3001/api/persons).
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: 10 * time.Second},
		settings: DefaultBreakerSettings(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = c.newBreaker()
	return c, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker {
	s := c.settings
	if s.Name == "" {
		s.Name = "phonebook-gateway"
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: isBreakerSuccess,
	})
}

// isBreakerSuccess counts only transport errors and 5xx responses as
// failures. A rejected request (4xx) means the server is healthy.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode < http.StatusInternalServerError
	}
	return errors.Is(err, context.Canceled)
}

// BaseURL returns the collection endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// GetAll fetches the whole collection in server order.
func (c *Client) GetAll(ctx context.Context) ([]contact.Contact, error) {
	var out []contact.Contact
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []contact.Contact{}
	}
	return out, nil
}

// Create adds a record; the server assigns the id.
func (c *Client) Create(ctx context.Context, p contact.Payload) (contact.Contact, error) {
	var out contact.Contact
	if err := c.do(ctx, http.MethodPost, c.baseURL, p, &out); err != nil {
		return contact.Contact{}, err
	}
	return out, nil
}

// Update replaces the record with the given id.
func (c *Client) Update(ctx context.Context, id contact.ID, p contact.Payload) (contact.Contact, error) {
	var out *contact.Contact
	if err := c.do(ctx, http.MethodPut, c.recordURL(id), p, &out); err != nil {
		return contact.Contact{}, err
	}
	// Some backends answer 200 null when the record vanished in the meantime.
	if out == nil {
		return contact.Contact{}, &Error{
			StatusCode: http.StatusNotFound,
			Message:    "record was already removed from server",
		}
	}
	return *out, nil
}

// Remove deletes the record with the given id.
func (c *Client) Remove(ctx context.Context, id contact.ID) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(id), nil, nil)
}

func (c *Client) recordURL(id contact.ID) string {
	return c.baseURL + "/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	requestID := uuid.NewString()
	start := time.Now()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, requestID, method, target, in, out)
	})

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.logger.Warn("gateway request failed", append(fields, zap.Error(err))...)
		return err
	}
	c.logger.Debug("gateway request", fields...)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, requestID, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, requestID)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response, requestID string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	gwErr := &Error{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
		RequestID:  requestID,
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		gwErr.Message = payload.Error
	}
	return gwErr
}
