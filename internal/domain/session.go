package domain

import "time"

// Session binds an opaque identifier to exactly one username until it
// expires or is revoked.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
