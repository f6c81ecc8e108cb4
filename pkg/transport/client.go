package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultErrorBodyLimit int64 = 4096

// Logger describes the minimal logging API used by the transport client.
type Logger interface {
	Printf(format string, args ...any)
}

// Client is a shared one-shot HTTP layer for all API packages. Every Do
// call maps to exactly one network round trip; failed requests are never
// retried here, recovery policy belongs to the caller.
type Client struct {
	httpClient     *http.Client
	logger         Logger
	baseHeaders    http.Header
	errorBodyLimit int64
}

// Option mutates Client behavior.
type Option func(*Client)

// New creates a transport client with sane defaults.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseHeaders:    http.Header{},
		errorBodyLimit: defaultErrorBodyLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.baseHeaders == nil {
		c.baseHeaders = http.Header{}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.errorBodyLimit <= 0 {
		c.errorBodyLimit = defaultErrorBodyLimit
	}

	return c
}

// WithHTTPClient injects custom HTTP client instance.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets a client-level timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithLogger configures request logging.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseHeaders applies headers to every request unless already present.
func WithBaseHeaders(headers http.Header) Option {
	return func(c *Client) {
		if len(headers) == 0 {
			return
		}
		if c.baseHeaders == nil {
			c.baseHeaders = http.Header{}
		}
		for key, values := range headers {
			for _, value := range values {
				c.baseHeaders.Add(key, value)
			}
		}
	}
}

// WithErrorBodyLimit changes max amount of response body captured in APIError.
func WithErrorBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.errorBodyLimit = limit
		}
	}
}

// Do executes the request exactly once and returns the raw response.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("transport: request is nil")
	}

	c.applyBaseHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		// Redacted URL only: credentials must never reach a log line.
		c.logger.Printf("transport: %s %s -> %d", req.Method, req.URL.Redacted(), resp.StatusCode)
	}
	return resp, nil
}

// DoJSON executes request and decodes JSON body for successful responses.
// Non-2xx responses are consumed and returned as *APIError.
func (c *Client) DoJSON(req *http.Request, out any) error {
	if req == nil {
		return errors.New("transport: request is nil")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return NewAPIError(resp, c.errorBodyLimit)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		drainAndClose(resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("transport: decode response: %w", err)
	}

	return nil
}

func (c *Client) applyBaseHeaders(headers http.Header) {
	for key, values := range c.baseHeaders {
		if headers.Get(key) != "" {
			continue
		}
		for _, value := range values {
			headers.Add(key, value)
		}
	}
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
