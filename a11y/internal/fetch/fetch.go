// Package fetch acquires the HTML of a page under audit. A plain HTTP GET
// is tried first; when the body looks like a script-rendered shell and a
// Renderer is configured, the page is loaded in a headless browser instead.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// MaxBody caps the bytes read from a response.
const MaxBody = 10 << 20

// Page is the outcome of a fetch.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
	Sufficient  bool
	Rendered    bool
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %d", e.URL, e.Code)
}

// Renderer loads a URL with script execution and returns the serialized DOM.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Fetcher performs HTTP GETs with optional browser escalation.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	allowPrivate bool
	ua           string
	renderer     Renderer
	logger       *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client. The address guard and WithTimeout
// do not apply to it.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// AllowPrivate lets the fetcher reach loopback and private networks, which
// are refused by default.
func AllowPrivate(allow bool) Option {
	return func(f *Fetcher) { f.allowPrivate = allow }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.ua = ua
		}
	}
}

// WithRenderer enables escalation to a browser for thin pages.
func WithRenderer(r Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher with a 30s timeout, no renderer, and connections
// restricted to public addresses.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: 30 * time.Second,
		ua:      "Mozilla/5.0 (compatible; a11y-audit/1.0)",
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout, Transport: newTransport(f.allowPrivate)}
	}
	return f
}

// Fetch GETs pageURL. Non-HTML content and non-2xx statuses are errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: pageURL, Code: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !isHTML(ct) {
		return nil, fmt.Errorf("fetch: %s: not an HTML document (%s)", pageURL, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	p := &Page{
		URL:         pageURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		Body:        body,
		Sufficient:  IsSufficient(body),
	}
	f.logger.Debug("fetch: fetched", "url", pageURL, "status", resp.StatusCode,
		"bytes", len(body), "sufficient", p.Sufficient)

	if p.Sufficient || f.renderer == nil {
		return p, nil
	}

	rendered, err := f.renderer.Render(ctx, p.FinalURL)
	if err != nil {
		f.logger.Warn("fetch: render failed, keeping static body", "url", pageURL, "error", err)
		return p, nil
	}
	p.Body = rendered
	p.Rendered = true
	p.Sufficient = IsSufficient(rendered)
	f.logger.Debug("fetch: rendered", "url", pageURL, "bytes", len(rendered))
	return p, nil
}

func isHTML(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
