// ABOUTME: Login session model shared by the authenticator and its store.
// ABOUTME: A session is live until it expires or is revoked.
package models

import "time"

// Session is one issued login.
type Session struct {
	ID        string     `json:"id"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// Active reports whether the session can still be used at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
