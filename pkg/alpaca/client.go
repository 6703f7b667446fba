// Package alpaca provides a minimal client for the Alpaca trading and market
// data APIs.
//
// Responses are returned as decoded JSON mappings; mapping them to domain
// values is left to the caller.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTradingURL is the paper trading host.
	DefaultTradingURL = "https://paper-api.alpaca.markets"

	// LiveTradingURL is the live trading host.
	LiveTradingURL = "https://api.alpaca.markets"

	// DefaultDataURL is the market data host.
	DefaultDataURL = "https://data.alpaca.markets"

	keyIDHeader     = "APCA-API-KEY-ID"
	secretKeyHeader = "APCA-API-SECRET-KEY"
)

// Credentials is an API key pair.
type Credentials struct {
	KeyID     string
	SecretKey string
}

// Host selects which API a request is sent to.
type Host int

const (
	Trading Host = iota
	Data
)

// String returns "trading" or "data".
func (h Host) String() string {
	if h == Data {
		return "data"
	}
	return "trading"
}

// Client handles HTTP requests to the Alpaca APIs.
type Client struct {
	TradingURL  string
	DataURL     string
	Credentials Credentials
	HTTPClient  *http.Client
}

// NewClient creates a new API client. Empty URLs fall back to the defaults.
func NewClient(tradingURL, dataURL string, creds Credentials) *Client {
	if tradingURL == "" {
		tradingURL = DefaultTradingURL
	}
	if dataURL == "" {
		dataURL = DefaultDataURL
	}
	return &Client{
		TradingURL:  strings.TrimSuffix(tradingURL, "/"),
		DataURL:     strings.TrimSuffix(dataURL, "/"),
		Credentials: creds,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Request describes one API call.
type Request struct {
	Host   Host
	Method string
	Path   []string
	Params map[string]string
	Body   any
}

// URLPath joins the escaped path segments.
func (r Request) URLPath() string {
	segments := make([]string, len(r.Path))
	for i, s := range r.Path {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}

// Fetch performs r and decodes a JSON object response.
func (c *Client) Fetch(ctx context.Context, r Request) (map[string]any, error) {
	var result map[string]any
	if err := c.fetchInto(ctx, r, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchList performs r and decodes a JSON array response.
func (c *Client) FetchList(ctx context.Context, r Request) ([]map[string]any, error) {
	var result []map[string]any
	if err := c.fetchInto(ctx, r, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) fetchInto(ctx context.Context, r Request, target any) error {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	path := r.URLPath()
	if len(r.Params) > 0 {
		query := url.Values{}
		for k, v := range r.Params {
			query.Set(k, v)
		}
		path = path + "?" + query.Encode()
	}

	log.WithFields(log.Fields{
		"method": method,
		"host":   r.Host,
		"path":   path,
	}).Debug("alpaca request")

	resp, err := c.do(ctx, method, c.baseURL(r.Host)+path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	return DecodeJSON(resp, target)
}

func (c *Client) baseURL(h Host) string {
	if h == Data {
		return c.DataURL
	}
	return c.TradingURL
}

// do performs an HTTP request with the key headers injected.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(keyIDHeader, c.Credentials.KeyID)
	req.Header.Set(secretKeyHeader, c.Credentials.SecretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}
