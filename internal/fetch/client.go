package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/phishscan/internal/feature"
)

// Client defaults.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodySize  = 2 * 1024 * 1024 // 2MB
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// Client fetches a single page and parses it.
//
// Design decision: The redirect count is an indicator (WebsiteForwarding),
// so we follow redirects ourselves through CheckRedirect instead of only
// looking at the final response. A fresh copy of the http.Client is used per
// request so concurrent fetches never share the counter.
type Client struct {
	// client is the underlying HTTP client.
	client *http.Client

	// userAgent is sent with every request. Phishing kits often serve a
	// harmless page to non-browser user agents.
	userAgent string

	// maxBodySize limits the bytes read from the response body.
	maxBodySize int64

	// maxRedirects is the number of redirects followed before giving up.
	maxRedirects int

	// timeout bounds the whole request when the context has no deadline.
	timeout time.Duration

	// proxyAddress is the optional SOCKS5 proxy in host:port form.
	proxyAddress string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Client) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Client) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum number of body bytes read.
func WithMaxBodySize(size int64) Option {
	return func(f *Client) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithMaxRedirects sets the number of redirects followed.
func WithMaxRedirects(n int) Option {
	return func(f *Client) {
		if n >= 0 {
			f.maxRedirects = n
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Client) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithSOCKS5Proxy routes requests through the SOCKS5 proxy at address.
func WithSOCKS5Proxy(address string) Option {
	return func(f *Client) {
		f.proxyAddress = address
	}
}

// NewClient creates a Client. It fails only when the proxy address is
// invalid.
func NewClient(opts ...Option) (*Client, error) {
	f := &Client{
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
		maxRedirects: DefaultMaxRedirects,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if f.proxyAddress != "" {
			if !isValidProxyAddress(f.proxyAddress) {
				return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, f.proxyAddress)
			}
			dialer, err := proxy.SOCKS5("tcp", f.proxyAddress, nil, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.Proxy = nil
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			}
		}
		f.client = &http.Client{Transport: transport}
	}

	return f, nil
}

// FetchPage retrieves rawURL and parses it into a feature.Page.
func (f *Client) FetchPage(ctx context.Context, rawURL string) (*feature.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	redirects := 0
	client := *f.client
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) > f.maxRedirects {
			return http.ErrUseLastResponse
		}
		redirects = len(via)
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	finalURL := resp.Request.URL.String()
	if !isHTML(resp.Header.Get("Content-Type"), body) {
		return &feature.Page{URL: finalURL, Redirects: redirects}, nil
	}

	page, err := Parse(finalURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	page.Redirects = redirects
	page.HTML = string(body)
	return page, nil
}

// isHTML decides whether body should be parsed. Servers frequently omit the
// content type, so the body is sniffed as a fallback.
func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// isValidProxyAddress checks the host:port form of a proxy address.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
