package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/promptreel/internal/config"
)

// CookieStore persists site session cookies between runs
type CookieStore struct {
	path     string
	domain   string
	required []string
}

// StoredCookie is the part of a browser cookie needed to restore it. cdproto's
// enum fields are kept as plain strings so a file with empty values still loads.
type StoredCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	Session  bool    `json:"session,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

func storedCookie(c *network.Cookie) StoredCookie {
	return StoredCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Session:  c.Session,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: string(c.SameSite),
	}
}

// Cookie converts back to the browser's cookie type.
func (c StoredCookie) Cookie() *network.Cookie {
	return &network.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		Session:  c.Session,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: network.CookieSameSite(c.SameSite),
	}
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []StoredCookie `json:"cookies"`
	CapturedAt time.Time      `json:"captured_at"`
	// ExpiresAt is the earliest expiry among persistent cookies; zero when all are session cookies.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCookieStore creates a cookie store at path. Only cookies whose domain
// contains domain are kept; required names must all be present for the
// stored session to count as valid.
func NewCookieStore(path, domain string, required []string) *CookieStore {
	return &CookieStore{path: path, domain: domain, required: required}
}

// DefaultCookieStorePath returns the default path for cookie storage
func DefaultCookieStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

func (cs *CookieStore) matchesDomain(c *network.Cookie) bool {
	return cs.domain == "" || strings.Contains(c.Domain, cs.domain)
}

// Save persists the site's cookies to disk
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	var kept []StoredCookie
	var earliestExpiry time.Time
	for _, c := range cookies {
		if !cs.matchesDomain(c) {
			continue
		}
		kept = append(kept, storedCookie(c))
		if c.Session || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Cookies:    kept,
		CapturedAt: time.Now(),
		ExpiresAt:  earliestExpiry,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &stored, nil
}

// IsValid checks if stored cookies are still usable
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil || len(stored.Cookies) == 0 {
		return false
	}

	if !stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt) {
		return false
	}

	have := make(map[string]bool, len(stored.Cookies))
	for _, c := range stored.Cookies {
		if c.Value != "" {
			have[c.Name] = true
		}
	}
	for _, name := range cs.required {
		if !have[name] {
			return false
		}
	}
	return true
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SiteCookies returns the stored cookies for restoring a session
func (cs *CookieStore) SiteCookies() ([]*network.Cookie, error) {
	stored, err := cs.Load()
	if err != nil {
		return nil, err
	}

	var out []*network.Cookie
	for _, sc := range stored.Cookies {
		if c := sc.Cookie(); cs.matchesDomain(c) {
			out = append(out, c)
		}
	}
	return out, nil
}
