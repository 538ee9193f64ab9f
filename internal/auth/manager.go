package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/promptreel/internal/config"
)

// Environment variables that override configured credentials.
const (
	EnvUsername = "PROMPTREEL_USERNAME"
	EnvPassword = "PROMPTREEL_PASSWORD"
)

// ErrNoCredentials is returned when login is attempted without a username or password.
var ErrNoCredentials = errors.New("login credentials are not configured")

// Driver is the part of a browser session the login flow needs.
type Driver interface {
	Navigate(url string) error
	WaitVisible(selector string, timeout time.Duration) error
	SendKeys(selector, text string) error
	Click(selector string) error
	Location() (string, error)
	Cookies() ([]*network.Cookie, error)
	SetCookies(cookies []*network.Cookie) error
}

// Credentials for the site's login form.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromConfig reads credentials from cfg, letting the environment override them.
func CredentialsFromConfig(cfg config.LoginConfig) Credentials {
	creds := Credentials{Username: cfg.Username, Password: cfg.Password}
	if v := os.Getenv(EnvUsername); v != "" {
		creds.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		creds.Password = v
	}
	return creds
}

// Manager handles site authentication
type Manager struct {
	cfg          config.LoginConfig
	cookieStore  *CookieStore
	pollInterval time.Duration
}

// NewManager creates a new auth manager
func NewManager(cfg config.LoginConfig, cookieStore *CookieStore) *Manager {
	return &Manager{cfg: cfg, cookieStore: cookieStore, pollInterval: 500 * time.Millisecond}
}

// IsAuthenticated checks if we have valid stored cookies
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Restore installs stored cookies into the browser.
func (m *Manager) Restore(d Driver) error {
	cookies, err := m.cookieStore.SiteCookies()
	if err != nil {
		return fmt.Errorf("failed to load stored cookies: %w", err)
	}
	if err := d.SetCookies(cookies); err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}
	log.Printf("[auth] Restored %d cookies", len(cookies))
	return nil
}

// Login fills in the login form and waits for the post-login URL, then
// saves the session cookies for later runs.
func (m *Manager) Login(ctx context.Context, d Driver, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrNoCredentials
	}

	timeout := time.Duration(m.cfg.TimeoutSeconds) * time.Second

	log.Printf("[auth] Logging in at %s", m.cfg.URL)
	if err := d.Navigate(m.cfg.URL); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	if err := d.WaitVisible(m.cfg.UsernameSelector, timeout); err != nil {
		return fmt.Errorf("login form did not appear: %w", err)
	}
	if err := d.SendKeys(m.cfg.UsernameSelector, creds.Username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := d.SendKeys(m.cfg.PasswordSelector, creds.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := d.Click(m.cfg.SubmitSelector); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	if err := m.waitForLogin(ctx, d, timeout); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cookies, err := d.Cookies()
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}
	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	log.Println("[auth] Login successful - cookies saved")
	return nil
}

// waitForLogin polls the location until it contains the success marker
func (m *Manager) waitForLogin(ctx context.Context, d Driver, timeout time.Duration) error {
	deadline := time.After(timeout)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return fmt.Errorf("no redirect to %q within %v", m.cfg.SuccessURLContains, timeout)
		case <-ticker.C:
			url, err := d.Location()
			if err != nil {
				continue
			}
			if strings.Contains(url, m.cfg.SuccessURLContains) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Logout clears stored cookies
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}
