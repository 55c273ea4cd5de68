package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/haikuowuya/jianshu/internal/logger"
	"github.com/haikuowuya/jianshu/internal/telemetry"
)

const (
	// AcceptLanguage is sent by both profiles.
	AcceptLanguage = "zh-CN,zh;q=0.8"

	acceptDocument = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptScript   = "*/*;q=0.5, text/javascript, application/javascript, application/ecmascript, application/x-ecmascript"

	requestIDHeader = "X-Request-Id"
)

// Profile is a content-negotiation profile. Each profile gets its own client.
type Profile int

const (
	ProfileDocument Profile = iota
	ProfileScript
)

func (p Profile) String() string {
	switch p {
	case ProfileDocument:
		return "document"
	case ProfileScript:
		return "script"
	default:
		return "unknown"
	}
}

// Accept returns the Accept header value for the profile.
func (p Profile) Accept() string {
	if p == ProfileScript {
		return acceptScript
	}
	return acceptDocument
}

// Config holds common client configuration
type Config struct {
	Timeout   time.Duration
	CacheMode CacheMode
	CacheDir  string

	// Transport is the innermost round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		CacheMode: CacheNone,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// String returns the body as text.
func (r *Response) String() string {
	return string(r.Body)
}

// Client issues blocking requests with fixed negotiation headers and a
// replaceable cookie store.
type Client struct {
	profile Profile
	jar     *swappableJar
	cache   *Cache
	http    *http.Client
}

// New creates a client for profile.
func New(profile Profile, cfg Config) (*Client, error) {
	jar, err := newSwappableJar()
	if err != nil {
		return nil, err
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	// Profiles send different Accept headers for the same URL, so each keeps
	// its own disk cache.
	cacheDir := cfg.CacheDir
	if cacheDir != "" {
		cacheDir = filepath.Join(cacheDir, profile.String())
	}
	cache := NewCache(cfg.CacheMode, cacheDir)

	var transport http.RoundTripper = gzhttp.Transport(base)
	transport = NewCachingTransport(cache, transport)
	transport = logger.NewTransport(transport)

	return &Client{
		profile: profile,
		jar:     jar,
		cache:   cache,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
	}, nil
}

// Profile returns the content-negotiation profile of the client.
func (c *Client) Profile() Profile {
	return c.profile
}

// GetSync performs a GET and reads the whole body. HTTP status codes are not
// interpreted; only transport failures return an error.
func (c *Client) GetSync(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// PostSync performs a POST, form encoding the body when form is non-nil.
func (c *Client) PostSync(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.do(req)
}

// SetCookieStore replaces the cookie store with one holding cookies for u.
func (c *Client) SetCookieStore(u *url.URL, cookies []*http.Cookie) error {
	return c.jar.Replace(u, cookies)
}

// ClearCookieStore detaches all cookies.
func (c *Client) ClearCookieStore() error {
	return c.jar.Replace(nil, nil)
}

// ResetCache drops cached responses. Call it whenever the cookie store
// changes, or pages fetched for one session are served to the next.
func (c *Client) ResetCache() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Reset()
}

// Cookies returns the cookies the client would send to u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.jar.Cookies(u)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	req.Header.Set("Accept", c.profile.Accept())
	req.Header.Set("Accept-Language", AcceptLanguage)

	if id, err := uuid.NewV7(); err == nil {
		req.Header.Set(requestIDHeader, id.String())
	}

	attrs := metric.WithAttributes(
		attribute.String("profile", c.profile.String()),
		attribute.String("method", req.Method),
	)
	m := telemetry.GetMetrics()
	m.HTTPRequestsTotal.Add(req.Context(), 1, attrs)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		m.HTTPRequestErrorsTotal.Add(req.Context(), 1, attrs)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		m.HTTPRequestErrorsTotal.Add(req.Context(), 1, attrs)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	m.HTTPRequestDuration.Record(req.Context(), float64(time.Since(started).Milliseconds()), attrs)

	log.Debug().
		Str("profile", c.profile.String()).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
