// Package confluence is the raw REST transport for a Confluence-style content
// store. It reports real errors; the degrade-gracefully policy lives one layer
// up in repository/content.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikidex/internal/domain"
	"github.com/kailas-cloud/wikidex/internal/metrics"
)

const (
	searchExpand = "space,version,body.storage"
	getExpand    = "space,version,body.storage,ancestors"

	endpointSearch  = "content_search"
	endpointContent = "content_get"
	endpointUser    = "user_current"
)

// Config holds the fixed connection parameters for a content store client.
type Config struct {
	BaseURL  string // e.g. https://yourcompany.atlassian.net
	Username string
	APIToken string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client issues authenticated requests against the content store REST API.
// Connection parameters are immutable after construction; no other state is
// retained across calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiBase    string
	username   string
	apiToken   string
	logger     *zap.Logger
}

// New creates a content store client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Username == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("username and API token are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiBase:    base + "/wiki/rest/api",
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		logger:     logger,
	}, nil
}

// BaseURL returns the store base URL used to build absolute document links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchCQL executes one CQL search and returns the raw result items.
// A 400 response (bad CQL) maps to domain.ErrInvalidQuery.
func (c *Client) SearchCQL(ctx context.Context, cqlExpr string, limit int) ([]ContentItem, error) {
	params := url.Values{}
	params.Set("cql", cqlExpr)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("expand", searchExpand)

	var resp searchResponse
	if err := c.getJSON(ctx, endpointSearch, c.apiBase+"/content/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetContent fetches one content item by id with full expansion.
// A 404 response maps to domain.ErrDocumentNotFound.
func (c *Client) GetContent(ctx context.Context, id string) (*ContentItem, error) {
	params := url.Values{}
	params.Set("expand", getExpand)

	var item ContentItem
	u := c.apiBase + "/content/" + url.PathEscape(id) + "?" + params.Encode()
	if err := c.getJSON(ctx, endpointContent, u, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CurrentUser performs the lightweight identity check used to verify
// credentials and connectivity.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var user currentUser
	if err := c.getJSON(ctx, endpointUser, c.apiBase+"/user/current", &user); err != nil {
		return "", err
	}
	return user.DisplayName, nil
}

// getJSON performs one authenticated GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ContentStoreRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("%s: %v: %w", endpoint, err, domain.ErrContentStoreError)
	}
	defer resp.Body.Close()

	metrics.ContentStoreRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ContentStoreRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return c.statusError(endpoint, resp)
	}

	metrics.ContentStoreRequestsTotal.WithLabelValues(endpoint, "success").Inc()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %v: %w", endpoint, err, domain.ErrContentStoreError)
	}
	return nil
}

// statusError maps HTTP error statuses to domain sentinels.
func (c *Client) statusError(endpoint string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	c.logger.Debug("content store error response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%s: status 400: %w", endpoint, domain.ErrInvalidQuery)
	case http.StatusNotFound:
		return fmt.Errorf("%s: status 404: %w", endpoint, domain.ErrDocumentNotFound)
	default:
		return fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, domain.ErrContentStoreError)
	}
}
