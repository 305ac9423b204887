package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"academy/internal/domain/operator"
)

// DefaultTTL is how long a console session lives without an explicit setting.
const DefaultTTL = 12 * time.Hour

// Domain errors
var (
	ErrNotFound     = errors.New("session not found or expired")
	ErrMissingToken = errors.New("session requires a bearer token")
)

// Session is the console's record of a logged-in operator. The bearer token
// stays on the server and the browser only holds the opaque ID.
type Session struct {
	ID               string
	Operator         operator.Operator
	Token            string // opaque bearer credential, never sent to the browser
	SelectedCenterID int    // CEO center switch; 0 means "first center"
	LastScreen       string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// New starts a session for op.
// PRE: token is non-empty; ttl > 0 (otherwise DefaultTTL)
// POST: Returns a session with a fresh random ID
func New(op operator.Operator, token string, now time.Time, ttl time.Duration) (Session, error) {
	if token == "" {
		return Session{}, ErrMissingToken
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	id, err := newID()
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:        id,
		Operator:  op,
		Token:     token,
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
	}, nil
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
