package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserConfig configures the headless renderer.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket of an external Chrome.
	// Empty launches a local headless Chrome on first use.
	RemoteURL string

	// NavTimeout bounds navigation and load. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser renders pages with Rod and the stealth evasions. Chrome is started
// lazily and shared across calls.
type Browser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewBrowser returns a renderer. Nothing is launched until Render.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("fetch: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.cfg.Logger.Info("fetch: launched local chrome", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("fetch: connect chrome: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// Render navigates to url in a fresh stealth tab and returns the outer HTML
// of the document once it has loaded.
func (b *Browser) Render(ctx context.Context, url string) ([]byte, error) {
	rb, err := b.connect()
	if err != nil {
		return nil, err
	}
	page, err := stealth.Page(rb)
	if err != nil {
		return nil, fmt.Errorf("fetch: open tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("fetch: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		b.cfg.Logger.Warn("fetch: wait load", "url", url, "error", err)
	}
	res, err := p.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("fetch: serialize DOM: %w", err)
	}
	return []byte(res.Value.Str()), nil
}

// Close shuts the browser down and removes a locally launched Chrome.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Kill()
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}
