package jira

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

	"github.com/opsbatch/trackerkit/pkg/transport"
)

// apiRootPath is appended to the base URL when it does not already
// address a versioned REST API path.
const apiRootPath = "rest/api/latest/"

// Option configures the Jira client.
type Option func(*config) error

type config struct {
	baseURL   string
	username  string
	secret    string
	transport *transport.Client
}

// Client is a Jira HTTP API client for batch scripts. The connection
// settings are fixed at construction and never mutated afterwards, so a
// single Client is safe to share between independent call sequences.
type Client struct {
	baseURL  string
	apiRoot  *url.URL
	username string
	// secret is write-only: it goes into the Authorization header and
	// nowhere else, never into a URI, error, or log line.
	secret    string
	transport *transport.Client

	issues *IssuesService
	users  *UsersService
}

// NewClient creates a Jira client. It fails fast on missing or invalid
// connection settings; no network call is made here.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(cfg.baseURL) == "" {
		return nil, errors.New("jira: base URL is required")
	}
	if strings.TrimSpace(cfg.username) == "" {
		return nil, errors.New("jira: username is required")
	}
	if strings.TrimSpace(cfg.secret) == "" {
		return nil, errors.New("jira: credential secret is required")
	}

	baseURL := ensureTrailingSlash(cfg.baseURL)
	apiRoot, err := url.Parse(deriveAPIRoot(baseURL))
	if err != nil {
		return nil, fmt.Errorf("jira: parse API root: %w", err)
	}
	if apiRoot.Scheme == "" || apiRoot.Host == "" {
		return nil, errors.New("jira: base URL must include scheme and host")
	}

	if cfg.transport == nil {
		cfg.transport = transport.New()
	}

	client := &Client{
		baseURL:   baseURL,
		apiRoot:   apiRoot,
		username:  cfg.username,
		secret:    cfg.secret,
		transport: cfg.transport,
	}
	client.issues = &IssuesService{client: client}
	client.users = &UsersService{client: client}

	return client, nil
}

// WithBaseURL sets the Jira base URL.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) error {
		cfg.baseURL = baseURL
		return nil
	}
}

// WithCredentials sets the username and secret used for HTTP Basic auth.
func WithCredentials(username, secret string) Option {
	return func(cfg *config) error {
		cfg.username = username
		cfg.secret = secret
		return nil
	}
}

// WithTransport injects shared transport.
func WithTransport(tr *transport.Client) Option {
	return func(cfg *config) error {
		cfg.transport = tr
		return nil
	}
}

// Issues returns issues API service.
func (c *Client) Issues() *IssuesService {
	return c.issues
}

// Users returns users API service.
func (c *Client) Users() *UsersService {
	return c.users
}

// BrowseURL derives the human-facing URL for an issue. Pure string
// concatenation, no network access.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "browse/" + key
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("jira: marshal request body: %w", err)
		}
		payload = encoded
	}

	return c.newRawRequest(ctx, method, path, query, payload, "application/json")
}

func (c *Client) newRawRequest(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*http.Request, error) {
	if c == nil {
		return nil, errors.New("jira: client is nil")
	}

	// Paths are relative to the API root, which always ends in a slash.
	rel := strings.TrimPrefix(path, "/")
	endpoint := c.apiRoot.ResolveReference(&url.URL{Path: rel})
	endpoint.RawQuery = transport.EncodeQuery(query)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("jira: create request: %w", err)
	}

	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.secret)

	return req, nil
}

func (c *Client) doNoResponseBody(req *http.Request) error {
	resp, err := c.transport.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return transport.NewAPIError(resp, 0)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ensureTrailingSlash normalizes a base URL so relative resolution and
// browse-URL derivation both work from the same string.
func ensureTrailingSlash(raw string) string {
	if strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}

// deriveAPIRoot appends the fixed versioned API path unless the base URL
// already references a REST API path, then collapses doubled slashes
// outside the scheme separator.
func deriveAPIRoot(base string) string {
	root := base
	if !strings.Contains(root, "/rest/api/") {
		root += apiRootPath
	}
	return collapseSlashes(root)
}

func collapseSlashes(raw string) string {
	scheme := ""
	rest := raw
	if idx := strings.Index(raw, "://"); idx >= 0 {
		scheme = raw[:idx+3]
		rest = raw[idx+3:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return scheme + rest
}
