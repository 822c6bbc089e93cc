package domain

import "time"

// Session is one row of the session ledger: a single issued token, its expiry
// and an active flag. The ledger is the sole server-side revocation mechanism;
// a token stays cryptographically valid after logout but is rejected because
// its ledger row has been deactivated.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the ledger expiry has elapsed at the reference time.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// IsUsable reports whether the session may still authenticate requests.
func (s *Session) IsUsable(reference time.Time) bool {
	return s != nil && s.IsActive && !s.IsExpired(reference)
}
