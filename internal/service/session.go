package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/account-portal/internal/domain"
)

// DefaultSessionTTL is how long a session stays valid after login.
const DefaultSessionTTL = 15 * time.Minute

// SessionManager keeps server-side sessions in memory and hands out signed
// tokens that reference them. The token alone never authenticates a request:
// its session ID must still be present in the manager.
// It is safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a SessionManager signing tokens with secret.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: make(map[string]*domain.Session),
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// TTL returns the lifetime of newly issued sessions.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a new session for username and returns its signed token.
func (m *SessionManager) Issue(ctx context.Context, username string) (string, *domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	now := m.now()
	m.pruneLocked(now)

	session := &domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(m.ttl),
	}
	m.sessions[session.ID] = session
	m.mu.Unlock()

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		m.mu.Lock()
		delete(m.sessions, session.ID)
		m.mu.Unlock()
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	copied := *session
	return token, &copied, nil
}

// Resolve returns the live session referenced by token, or ErrUnauthorized.
// A cancelled ctx returns its error.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims, err := m.parse(token, true)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)

	session, ok := m.sessions[claims.ID]
	if !ok || session.Expired(now) || session.Username != claims.Subject {
		return nil, domain.ErrUnauthorized
	}

	copied := *session
	return &copied, nil
}

// Revoke ends the session referenced by token. Unknown, expired or
// malformed tokens are ignored. A cancelled ctx leaves the sessions
// untouched and returns its error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	claims, err := m.parse(token, false)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, claims.ID)
	return nil
}

// Active returns the number of unexpired sessions.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.now())
	return len(m.sessions)
}

func (m *SessionManager) parse(token string, validate bool) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if validate {
		opts = append(opts, jwt.WithTimeFunc(m.clock()))
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session id")
	}
	return claims, nil
}

func (m *SessionManager) clock() func() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *SessionManager) pruneLocked(now time.Time) {
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}
}
