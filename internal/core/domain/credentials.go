package domain

import "time"

// TokenData is an OAuth token held for one service within one session
type TokenData struct {
	AccessToken  string `json:"access_token" masq:"secret"`
	RefreshToken string `json:"refresh_token,omitempty" masq:"secret"`
	// ExpiresAt is epoch milliseconds; nil means the token does not expire
	ExpiresAt *int64 `json:"expires_at,omitempty"`
	TokenType string `json:"token_type"`
}

// ExpiryTime returns the expiry as a time. ok is false when none is recorded.
func (t *TokenData) ExpiryTime() (time.Time, bool) {
	if t == nil || t.ExpiresAt == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.ExpiresAt), true
}

// IsExpired checks if the access token is past its expiry
func (t *TokenData) IsExpired(now time.Time) bool {
	exp, ok := t.ExpiryTime()
	if !ok {
		return false
	}
	return now.After(exp)
}

// NeedsRefresh checks if the token is within margin of its expiry
func (t *TokenData) NeedsRefresh(now time.Time, margin time.Duration) bool {
	exp, ok := t.ExpiryTime()
	if !ok {
		return false
	}
	return !now.Before(exp.Add(-margin))
}

// Status derives the connection status. A nil token is disconnected.
func (t *TokenData) Status(now time.Time) ConnectionStatus {
	if t == nil || t.AccessToken == "" {
		return StatusDisconnected
	}
	if t.IsExpired(now) {
		return StatusExpired
	}
	return StatusConnected
}

// Clone returns a deep copy
func (t *TokenData) Clone() *TokenData {
	if t == nil {
		return nil
	}
	c := *t
	if t.ExpiresAt != nil {
		v := *t.ExpiresAt
		c.ExpiresAt = &v
	}
	return &c
}

// ExpiresAtFrom converts a lifetime into an epoch-millis expiry.
// A non-positive lifetime yields nil.
func ExpiresAtFrom(now time.Time, lifetime time.Duration) *int64 {
	if lifetime <= 0 {
		return nil
	}
	v := now.Add(lifetime).UnixMilli()
	return &v
}
