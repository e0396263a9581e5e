package oauthLocal

import "time"

// AccessToken is the persisted client-credentials token. Its JSON shape is the
// one returned by the authorization endpoint.
type AccessToken struct {
	Value     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
	Scope     string `json:"scope"`
	IssuedAt  int64  `json:"created_at"`
}

// ValidAt reports whether the token can still be used at now. A token missing
// its issue time or lifetime is never valid.
func (t *AccessToken) ValidAt(now time.Time) bool {
	if t == nil || t.Value == "" || t.IssuedAt <= 0 || t.ExpiresIn <= 0 {
		return false
	}
	return t.IssuedAt+t.ExpiresIn > now.Unix()
}

// ExpiresAt is the instant the token stops being valid.
func (t *AccessToken) ExpiresAt() time.Time {
	return time.Unix(t.IssuedAt+t.ExpiresIn, 0)
}

// Header renders the Authorization header value.
func (t *AccessToken) Header() string {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType + " " + t.Value
}
