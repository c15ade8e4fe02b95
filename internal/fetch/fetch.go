package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/offprint/offprint/internal/cache"
)

// Result is a fetched page after charset normalization.
type Result struct {
	// HTML is the response body decoded to UTF-8.
	HTML []byte

	// FinalURL is the request URL after redirects.
	FinalURL *url.URL

	// DeclaredLanguage is the primary Content-Language value, empty when
	// the server sent none.
	DeclaredLanguage string
}

// Client wraps http.Client and provides timeouts, limited retry on transient
// errors, markup content-type gating and optional conditional caching.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for HTTP GET bodies and headers.
	Cache *cache.HTTPCache
	// If true, bypass cache reads entirely and fetch fresh (no conditional
	// headers), but still save the latest response to cache.
	BypassCache bool

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	// internal limiter initialized on first use when MaxConcurrent > 0
	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, user-agent, and bounded retry for transient
// errors. Bodies are decoded to UTF-8 before they are returned or cached.
func (c *Client) Get(ctx context.Context, rawURL string) (*Result, error) {
	// If cache exists, attempt conditional request
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, status, hdr, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if status == http.StatusNotModified {
				if c.Cache != nil {
					if cached := c.fromCache(ctx, rawURL); cached != nil {
						return cached, nil
					}
				}
				return nil, errors.New("not modified but cached body unavailable")
			}
			if c.Cache != nil && status == http.StatusOK {
				_ = c.Cache.Save(ctx, rawURL, cache.HTTPEntry{
					FinalURL:        res.FinalURL.String(),
					ContentType:     hdr.Get("Content-Type"),
					ContentLanguage: res.DeclaredLanguage,
					ETag:            hdr.Get("ETag"),
					LastModified:    hdr.Get("Last-Modified"),
				}, res.HTML)
			}
			return res, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// fromCache rebuilds a Result from the stored body and metadata.
func (c *Client) fromCache(ctx context.Context, rawURL string) *Result {
	body, err := c.Cache.LoadBody(ctx, rawURL)
	if err != nil {
		return nil
	}
	res := &Result{HTML: body}
	if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
		res.DeclaredLanguage = meta.ContentLanguage
		if meta.FinalURL != "" {
			if u, err := url.Parse(meta.FinalURL); err == nil {
				res.FinalURL = u
			}
		}
	}
	if res.FinalURL == nil {
		if u, err := url.Parse(rawURL); err == nil {
			res.FinalURL = u
		}
	}
	return res
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*Result, int, http.Header, error) {
	// Concurrency gate per client instance
	c.acquire()
	defer c.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, 0, nil, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return nil, resp.StatusCode, nil, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotModified {
		// 304: no body expected
		return nil, resp.StatusCode, resp.Header, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(contentType) {
		return nil, resp.StatusCode, nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	// Decode to UTF-8 using the declared charset, sniffing when undeclared.
	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return nil, resp.StatusCode, nil, fmt.Errorf("charset reader: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	return &Result{
		HTML:             body,
		FinalURL:         finalURL,
		DeclaredLanguage: primaryContentLanguage(resp.Header.Get("Content-Language")),
	}, resp.StatusCode, resp.Header, nil
}

// primaryContentLanguage returns the first tag of a Content-Language value.
func primaryContentLanguage(v string) string {
	v, _, _ = strings.Cut(v, ",")
	return strings.TrimSpace(v)
}

func isTransient(err error) bool {
	// Treat HTTP 5xx and context deadline as transient.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// allow text/html variants and application/xhtml+xml
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
		// should not happen, but avoid blocking
	}
}
