// Package session persists per-browser state in signed cookies. Two cookies
// are managed: the admin session, which carries the authenticated email and
// expires, and the cart cookie, which pins a browser to its cart slot and is
// long-lived.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultAdminCookieName = "p9_admin_session"
	defaultCartCookieName  = "p9_cart"
	defaultCookiePath      = "/"
	defaultAdminLifetime   = 12 * time.Hour
	defaultIdleTimeout     = 30 * time.Minute
	defaultCartLifetime    = 365 * 24 * time.Hour
)

// ErrExpired indicates the admin session passed its idle or absolute expiry.
var ErrExpired = errors.New("session: expired")

// ErrNoSession indicates no decodable admin session cookie was present.
var ErrNoSession = errors.New("session: not present")

// ErrInvalidConfig indicates the manager was initialised without required keys.
var ErrInvalidConfig = errors.New("session: invalid config")

// AdminSession is the payload stored in the admin cookie.
type AdminSession struct {
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Config controls cookie encoding and lifecycle limits.
type Config struct {
	AdminCookieName string
	CartCookieName  string
	HashKey         []byte
	BlockKey        []byte
	CookiePath      string
	CookieDomain    string
	CookieSecure    bool

	AdminLifetime time.Duration
	IdleTimeout   time.Duration
	CartLifetime  time.Duration
	Now           func() time.Time
}

// Manager encodes and decodes the signed cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}

	if cfg.AdminCookieName == "" {
		cfg.AdminCookieName = defaultAdminCookieName
	}
	if cfg.CartCookieName == "" {
		cfg.CartCookieName = defaultCartCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.AdminLifetime <= 0 {
		cfg.AdminLifetime = defaultAdminLifetime
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CartLifetime <= 0 {
		cfg.CartLifetime = defaultCartLifetime
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{cfg: cfg, codec: codec, now: nowFn}, nil
}

// LoadAdmin decodes the admin session from the request.
func (m *Manager) LoadAdmin(r *http.Request) (AdminSession, error) {
	cookie, err := r.Cookie(m.cfg.AdminCookieName)
	if err != nil {
		return AdminSession{}, ErrNoSession
	}

	var stored AdminSession
	if err := m.codec.Decode(m.cfg.AdminCookieName, cookie.Value, &stored); err != nil {
		return AdminSession{}, ErrNoSession
	}
	if m.isExpired(stored, m.now()) {
		return AdminSession{}, ErrExpired
	}
	return stored, nil
}

// SaveAdmin writes a fresh admin session for the given email.
func (m *Manager) SaveAdmin(w http.ResponseWriter, email string) error {
	now := m.now().UTC()
	data := AdminSession{
		Email:      email,
		CreatedAt:  now,
		LastActive: now,
		ExpiresAt:  now.Add(m.cfg.AdminLifetime),
	}
	return m.writeAdmin(w, data)
}

// TouchAdmin refreshes the last-active timestamp on an existing session.
func (m *Manager) TouchAdmin(w http.ResponseWriter, sess AdminSession) error {
	sess.LastActive = m.now().UTC()
	return m.writeAdmin(w, sess)
}

// DestroyAdmin clears the admin session cookie immediately.
func (m *Manager) DestroyAdmin(w http.ResponseWriter) {
	http.SetCookie(w, m.expiredCookie(m.cfg.AdminCookieName))
}

func (m *Manager) writeAdmin(w http.ResponseWriter, data AdminSession) error {
	encoded, err := m.codec.Encode(m.cfg.AdminCookieName, data)
	if err != nil {
		return fmt.Errorf("encode admin session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     m.cfg.AdminCookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !data.ExpiresAt.IsZero() {
		expiry := data.ExpiresAt.UTC()
		cookie.Expires = expiry
		remaining := expiry.Sub(m.now())
		if remaining <= 0 {
			cookie.MaxAge = -1
		} else {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		}
	}
	http.SetCookie(w, cookie)
	return nil
}

func (m *Manager) isExpired(sess AdminSession, now time.Time) bool {
	now = now.UTC()
	if !sess.ExpiresAt.IsZero() && now.After(sess.ExpiresAt.UTC()) {
		return true
	}
	if m.cfg.IdleTimeout > 0 {
		last := sess.LastActive
		if last.IsZero() {
			last = sess.CreatedAt
		}
		if !last.IsZero() && now.Sub(last) > m.cfg.IdleTimeout {
			return true
		}
	}
	return false
}

// CartID returns the browser's cart identifier, minting and setting a new one
// when the cookie is absent or tampered with. The returned bool reports
// whether a new cookie was written.
func (m *Manager) CartID(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	if cookie, err := r.Cookie(m.cfg.CartCookieName); err == nil {
		var id string
		if err := m.codec.Decode(m.cfg.CartCookieName, cookie.Value, &id); err == nil && id != "" {
			return id, false, nil
		}
	}

	id, err := generateToken(16)
	if err != nil {
		return "", false, err
	}
	encoded, err := m.codec.Encode(m.cfg.CartCookieName, id)
	if err != nil {
		return "", false, fmt.Errorf("encode cart cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CartCookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.cfg.CartLifetime.Seconds()),
		Expires:  m.now().UTC().Add(m.cfg.CartLifetime),
	})
	return id, true, nil
}

func (m *Manager) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func generateToken(length int) (string, error) {
	if length <= 0 {
		length = 16
	}
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
