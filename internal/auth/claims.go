package auth

import (
	"time"

	"fleetdash/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is what the backend puts in its tokens. The client never holds
// the signing key, so claims are read unverified and only used for
// display and as a role fallback.
type Claims struct {
	UserID   string      `json:"id,omitempty"`
	AltID    string      `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Who returns the first non-empty user identifier.
func (c *Claims) Who() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.AltID != "":
		return c.AltID
	default:
		return c.Subject
	}
}

// ExpiresIn is the time left before exp; ok is false without an exp claim.
func (c *Claims) ExpiresIn(now time.Time) (time.Duration, bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Sub(now), true
}

func PeekClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	return &c, nil
}
