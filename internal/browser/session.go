package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/promptreel/internal/config"
)

// ErrNotOpen is returned by operations on a session that is not running.
var ErrNotOpen = errors.New("browser session is not open")

// Session is a single Chrome instance with downloads routed to one directory.
type Session struct {
	cfg         config.BrowserConfig
	downloadDir string

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession creates a session. Nothing is launched until Open.
func NewSession(cfg config.BrowserConfig, downloadDir string) *Session {
	return &Session{cfg: cfg, downloadDir: downloadDir}
}

// Open launches the browser, sends downloads to the download directory and
// grants clipboard access so prompts can be written from a script.
func (s *Session) Open(ctx context.Context) error {
	if s.ctx != nil {
		return nil
	}

	dir, err := filepath.Abs(s.downloadDir)
	if err != nil {
		return fmt.Errorf("failed to resolve download dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	if s.cfg.ProfileDir != "" {
		log.Printf("[browser] Using profile: %s", s.cfg.ProfileDir)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(s.cfg)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	err = chromedp.Run(browserCtx,
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(dir).
			WithEventsEnabled(true),
	)
	if err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("failed to set download directory: %w", err)
	}

	err = chromedp.Run(browserCtx,
		cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{
			cdpbrowser.PermissionTypeClipboardReadWrite,
			cdpbrowser.PermissionTypeClipboardSanitizedWrite,
		}),
	)
	if err != nil {
		log.Printf("[browser] Could not grant clipboard permission: %v", err)
	}

	s.ctx = browserCtx
	s.cancel = cancel
	s.allocCancel = allocCancel
	log.Printf("[browser] Started, downloads go to %s", dir)
	return nil
}

// Navigate loads url in the current tab.
func (s *Session) Navigate(url string) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	if s.ctx == nil {
		return "", ErrNotOpen
	}
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitVisible blocks until selector is visible or timeout elapses.
func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element %s not visible: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (s *Session) Click(selector string) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	return chromedp.Run(s.ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// SendKeys types text into the element matching selector.
func (s *Session) SendKeys(selector, text string) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	return chromedp.Run(s.ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// clipboardScript returns JS that writes text to the clipboard. The text is
// embedded as a JSON string literal so quotes and backticks survive.
func clipboardScript(text string) (string, error) {
	literal, err := json.Marshal(text)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("navigator.clipboard.writeText(%s)", literal), nil
}

// CopyToClipboard writes text to the clipboard from the page context.
// The page must have focus for the browser to accept the write.
func (s *Session) CopyToClipboard(text string) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	script, err := clipboardScript(text)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	err = chromedp.Run(ctx,
		chromedp.Evaluate(script, nil, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("browser clipboard write failed: %w", err)
	}
	return nil
}

// Cookies returns every cookie in the browser.
func (s *Session) Cookies() ([]*network.Cookie, error) {
	if s.ctx == nil {
		return nil, ErrNotOpen
	}
	var cookies []*network.Cookie
	err := chromedp.Run(s.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	return cookies, err
}

// SetCookies installs cookies, typically restored from a previous login.
func (s *Session) SetCookies(cookies []*network.Cookie) error {
	if s.ctx == nil {
		return ErrNotOpen
	}
	return chromedp.Run(s.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				p := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)
				if c.SameSite != "" {
					p = p.WithSameSite(c.SameSite)
				}
				if err := p.Do(ctx); err != nil {
					return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
				}
			}
			return nil
		}),
	)
}

// Done is closed once the browser has gone away, whether closed by Close or
// by the operator closing the window.
func (s *Session) Done() <-chan struct{} {
	if s.ctx == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.ctx.Done()
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.ctx == nil {
		return nil
	}

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	s.ctx = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	log.Println("[browser] Closed")
	return nil
}
