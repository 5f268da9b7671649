package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/oneinstack/mirror/internal/logstream"
	"github.com/oneinstack/mirror/internal/utils"
)

const (
	userAgent = "OneinStack-Mirror-Bot/2.0"

	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 60 * time.Second

	// maxBodyBytes caps how much of an upstream response is read into
	// memory when parsing listings and APIs.
	maxBodyBytes = 16 << 20
)

// TokenFunc returns the current GitHub API token, or "" when none is
// configured. Looked up per request so settings changes apply immediately.
type TokenFunc func() string

// Client wraps an *http.Client with the shared fetch behavior every adapter
// uses: a stable User-Agent, optional GitHub bearer auth, and per-request
// progress events on the live log stream.
type Client struct {
	http   *http.Client
	token  TokenFunc
	stream *logstream.Broadcaster
}

// NewClient builds the shared adapter client. stream may be nil when no live
// log delivery is wanted (tests); token may be nil.
func NewClient(httpClient *http.Client, token TokenFunc, stream *logstream.Broadcaster) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:   httpClient,
		token:  token,
		stream: stream,
	}
}

// Get performs a GET with the shared headers. Callers own the response body.
// Non-2xx statuses are returned as errors since every adapter call site
// treats them as such for top-level pages.
func (c *Client) Get(ctx context.Context, adapter, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.emit(logstream.LevelInfo, adapter, "GET "+shortURL(rawURL))

	resp, err := c.http.Do(req)
	if err != nil {
		c.emit(logstream.LevelError, adapter, fmt.Sprintf("error: %s: %v", shortURL(rawURL), err))
		return nil, err
	}
	if resp.StatusCode >= 400 {
		c.emit(logstream.LevelError, adapter, fmt.Sprintf("%d %s", resp.StatusCode, shortURL(rawURL)))
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	c.emit(logstream.LevelSuccess, adapter, fmt.Sprintf("%d %s", resp.StatusCode, shortURL(rawURL)))
	return resp, nil
}

// GetDocument fetches a page and parses it with goquery.
func (c *Client) GetDocument(ctx context.Context, adapter, rawURL string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, adapter, rawURL)
	if err != nil {
		return nil, err
	}
	defer utils.Close(resp.Body)

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// GetJSON fetches a URL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, adapter, rawURL string, out any) error {
	resp, err := c.Get(ctx, adapter, rawURL)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) emit(level logstream.Level, adapter, message string) {
	if c.stream != nil {
		c.stream.Publish(level, adapter, message)
	}
}

// shortURL trims a URL to host+path for log readability.
func shortURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	p := u.Path
	if len(p) > 50 {
		p = p[:50] + "..."
	}
	return u.Host + p
}
