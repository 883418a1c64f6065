package sessions

import "time"

// Session is the single authenticated identity held by a client.
// It is created after a successful sign-in callback and destroyed on sign-out or expiry.
type Session struct {
	UserID      string    `json:"user_id"`      // Subject from the identity provider
	Email       string    `json:"email"`        // Email claim
	DisplayName string    `json:"display_name"` // Name claim, denormalised into the profile record
	Provider    string    `json:"provider"`     // Identity provider that issued the session

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Valid reports whether the session carries an identity and has not expired.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserID != "" && !s.Expired(now)
}
