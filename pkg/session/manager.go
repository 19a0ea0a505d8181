package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var ErrInvalidConfig = errors.New("session: invalid config")

// Data is the payload stored in the signed cookie.
type Data struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"iat"`
}

// Manager issues and validates the opaque session handle carried in a signed cookie.
type Manager struct {
	name   string
	maxAge time.Duration
	secure bool
	codec  *securecookie.SecureCookie
	now    func() time.Time
}

func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.HashKey) == "" {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		return nil, fmt.Errorf("%w: cookie name is required", ErrInvalidConfig)
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("%w: max age must be positive", ErrInvalidConfig)
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey = []byte(cfg.BlockKey)
	}
	codec := securecookie.New([]byte(cfg.HashKey), blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.MaxAge.Seconds()))

	return &Manager{
		name:   cfg.CookieName,
		maxAge: cfg.MaxAge,
		secure: cfg.Secure,
		codec:  codec,
		now:    time.Now,
	}, nil
}

// MaxAge is the lifetime of a handle, also used as the cart TTL.
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// Load returns the session carried by r. A missing, tampered or expired cookie
// yields a freshly minted session and fresh=true.
func (m *Manager) Load(r *http.Request) (data Data, fresh bool) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return m.newData(), true
	}

	var stored Data
	if err := m.codec.Decode(m.name, cookie.Value, &stored); err != nil {
		return m.newData(), true
	}
	if _, err := uuid.Parse(stored.ID); err != nil {
		return m.newData(), true
	}
	if m.now().Sub(stored.IssuedAt) > m.maxAge {
		return m.newData(), true
	}
	return stored, false
}

// Save writes the session cookie; its expiry runs from IssuedAt.
func (m *Manager) Save(w http.ResponseWriter, data Data) error {
	encoded, err := m.codec.Encode(m.name, data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	expiry := data.IssuedAt.Add(m.maxAge).UTC()
	sameSite := http.SameSiteLaxMode
	if m.secure {
		// Secure deployments serve the storefront from another origin.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(expiry.Sub(m.now()).Round(time.Second).Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
	return nil
}

func (m *Manager) newData() Data {
	return Data{
		ID:       uuid.NewString(),
		IssuedAt: m.now().UTC(),
	}
}
