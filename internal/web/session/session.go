// Package session keeps bearer tokens in fiber's session storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

var (
	// ErrTokenNotFound is returned for an unknown or expired token.
	ErrTokenNotFound = errors.New("session token not found")

	// ErrUserIDEmpty is returned when a token would carry no user id.
	ErrUserIDEmpty = errors.New("session user id is empty")
)

const keyPrefix = "token:"

// Data represents the session data stored for a token.
type Data struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager issues, resolves and revokes bearer tokens.
type Manager struct {
	store  *session.Store
	expiry time.Duration
}

// New creates a manager on storage. A nil storage uses fiber's in-memory storage. Tokens expire after
// expiry; zero keeps them until revoked.
func New(storage fiber.Storage, expiry time.Duration) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Storage:    storage,
			Expiration: expiry,
		}),
		expiry: expiry,
	}
}

// Write stores the session data for token.
func (m *Manager) Write(token string, d Data) error {
	return m.set(token, d, m.expiry)
}

// Register stores a static token that never expires.
func (m *Manager) Register(token string, d Data) error {
	return m.set(token, d, 0)
}

func (m *Manager) set(token string, d Data, exp time.Duration) error {
	if d.UserID == "" {
		return ErrUserIDEmpty
	}

	out, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return m.store.Storage.Set(keyPrefix+token, out, exp)
}

// Read returns the session data stored for token.
func (m *Manager) Read(token string) (Data, error) {
	var d Data

	if token == "" {
		return d, ErrTokenNotFound
	}

	byteData, err := m.store.Storage.Get(keyPrefix + token)
	if err != nil {
		return d, err
	}

	if len(byteData) == 0 {
		return d, ErrTokenNotFound
	}

	if err := json.Unmarshal(byteData, &d); err != nil {
		return d, err
	}

	return d, nil
}

// Revoke removes token.
func (m *Manager) Revoke(token string) error {
	return m.store.Storage.Delete(keyPrefix + token)
}

// Issue generates a token for userID and stores it.
func (m *Manager) Issue(userID string, now time.Time) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	if err := m.Write(token, Data{UserID: userID, CreatedAt: now}); err != nil {
		return "", err
	}

	return token, nil
}

// Close releases the underlying storage.
func (m *Manager) Close() error {
	return m.store.Storage.Close()
}

// GenerateToken generates a new secure random token.
func GenerateToken() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
