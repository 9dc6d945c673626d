package domain

import (
	"testing"
	"time"
)

func expiresIn(now time.Time, d time.Duration) *int64 {
	v := now.Add(d).UnixMilli()
	return &v
}

func TestTokenData_NeedsRefresh(t *testing.T) {
	now := time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC)
	margin := 60 * time.Second

	tests := []struct {
		name  string
		token *TokenData
		want  bool
	}{
		{"no expiry", &TokenData{AccessToken: "a"}, false},
		{"far future", &TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, time.Hour)}, false},
		{"61s left", &TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, 61*time.Second)}, false},
		{"exactly margin", &TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, 60*time.Second)}, true},
		{"30s left", &TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, 30*time.Second)}, true},
		{"expired", &TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, -10*time.Minute)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.NeedsRefresh(now, margin); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTokenData_Status(t *testing.T) {
	now := time.Now()

	var missing *TokenData
	if missing.Status(now) != StatusDisconnected {
		t.Error("expected nil token to be disconnected")
	}
	if (&TokenData{}).Status(now) != StatusDisconnected {
		t.Error("expected empty access token to be disconnected")
	}
	if (&TokenData{AccessToken: "a"}).Status(now) != StatusConnected {
		t.Error("expected token without expiry to be connected")
	}
	if (&TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, -time.Second)}).Status(now) != StatusExpired {
		t.Error("expected past expiry to be expired")
	}
	// Within the refresh margin but not yet past expiry.
	if (&TokenData{AccessToken: "a", ExpiresAt: expiresIn(now, 10*time.Second)}).Status(now) != StatusConnected {
		t.Error("expected token inside margin to still be connected")
	}
}

func TestTokenData_Clone(t *testing.T) {
	now := time.Now()
	orig := &TokenData{AccessToken: "a", RefreshToken: "r", ExpiresAt: expiresIn(now, time.Hour), TokenType: "Bearer"}
	c := orig.Clone()

	*c.ExpiresAt = 0
	c.AccessToken = "b"
	if *orig.ExpiresAt == 0 || orig.AccessToken != "a" {
		t.Error("expected clone to be independent of the original")
	}

	var nilToken *TokenData
	if nilToken.Clone() != nil {
		t.Error("expected nil clone of nil token")
	}
}

func TestExpiresAtFrom(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	got := ExpiresAtFrom(now, time.Hour)
	if got == nil || *got != 1_000_000+3_600_000 {
		t.Errorf("unexpected expiry %v", got)
	}
	if ExpiresAtFrom(now, 0) != nil {
		t.Error("expected nil for zero lifetime")
	}
}
