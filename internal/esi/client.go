package esi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"eve-arbscan/internal/metrics"
)

const (
	DefaultBaseURL   = "https://esi.evetech.net/latest"
	DefaultUserAgent = "eve-arbscan/1.0 (github.com)"
	datasource       = "tranquility"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	UserAgent         string
	OrdersTimeout     time.Duration
	HistoryTimeout    time.Duration
	NamesTimeout      time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client is a rate-limited ESI HTTP client. Every call carries its own
// timeout; none of them retry.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string

	ordersTimeout  time.Duration
	historyTimeout time.Duration
	namesTimeout   time.Duration
}

// NewClient creates an ESI client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.OrdersTimeout <= 0 {
		opts.OrdersTimeout = 10 * time.Second
	}
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = 5 * time.Second
	}
	if opts.NamesTimeout <= 0 {
		opts.NamesTimeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 100
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}
	if opts.HTTPClient == nil {
		// Per-request deadlines come from the context.
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		http:           opts.HTTPClient,
		limiter:        rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		baseURL:        opts.BaseURL,
		userAgent:      opts.UserAgent,
		ordersTimeout:  opts.OrdersTimeout,
		historyTimeout: opts.HistoryTimeout,
		namesTimeout:   opts.NamesTimeout,
	}
}

// TransportError is the failure of a single ESI call: a network error, a
// timeout, a non-200 status or an undecodable body.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("esi %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("esi %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HealthCheck pings the ESI status endpoint.
func (c *Client) HealthCheck(ctx context.Context) bool {
	var status struct {
		Players int `json:"players"`
	}
	url := fmt.Sprintf("%s/status/?datasource=%s", c.baseURL, datasource)
	_, err := c.doJSON(ctx, "status", http.MethodGet, url, nil, c.ordersTimeout, &status)
	return err == nil
}

// doJSON performs one request and decodes a JSON body into dst.
// It returns the response headers on success.
func (c *Client) doJSON(ctx context.Context, op, method, url string, body interface{}, timeout time.Duration, dst interface{}) (http.Header, error) {
	start := time.Now()
	defer func() { metrics.ESILatency.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.ESIRequests.WithLabelValues(op, "transport").Inc()
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("esi %s: marshal body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, fmt.Errorf("esi %s: new request: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ESIRequests.WithLabelValues(op, "transport").Inc()
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.ESIRequests.WithLabelValues(op, "status").Inc()
		return nil, &TransportError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(string(bytes.TrimSpace(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		metrics.ESIRequests.WithLabelValues(op, "transport").Inc()
		return nil, &TransportError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	metrics.ESIRequests.WithLabelValues(op, "ok").Inc()
	return resp.Header, nil
}
