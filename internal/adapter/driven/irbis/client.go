// Package irbis implements the IdentityAPI port against the IRBIS REST API.
package irbis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/realyou/internal/domain/port/driven"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://irbis.espysys.com"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 10 << 20

// Compile-time interface satisfaction check.
var _ driven.IdentityAPI = (*Client)(nil)

// Client implements driven.IdentityAPI over HTTP. It never retries; every
// method issues exactly one request.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a Client with the following transport stack:
//  1. httpcache (ETag / Cache-Control aware in-memory caching)
//  2. http.DefaultTransport
//
// Status polls opt out of the cache per request, so a cached "pending"
// response can never be replayed.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = http.DefaultTransport

	httpClient := cacheTransport.Client()
	httpClient.Timeout = timeout

	return NewClientWithHTTPClient(httpClient, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Tests use it to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &Client{http: httpClient, baseURL: u}, nil
}

// request describes one API call.
type request struct {
	method  string
	path    string     // joined onto the base URL path.
	query   url.Values // holds the API key; never logged.
	body    any        // JSON-encoded when non-nil.
	noCache bool
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// snippet returns a short excerpt of the body for error messages.
func (r *response) snippet() string {
	const limit = 200
	s := strings.TrimSpace(string(r.body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// do issues req and reads the body. Network and read failures wrap
// driven.ErrTransport; the status code is left for the caller to judge.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	u.RawQuery = req.query.Encode()

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", req.path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.noCache {
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		// url.Error embeds the full URL, including the key; report the path only.
		return nil, fmt.Errorf("%w: %s %s: %w", driven.ErrTransport, req.method, req.path, unwrapURLError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s body: %w", driven.ErrTransport, req.path, err)
	}

	slog.Debug("irbis api call",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"cached", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &response{status: resp.StatusCode, body: data}, nil
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}

func keyQuery(apiKey string) url.Values {
	return url.Values{"key": {apiKey}}
}
