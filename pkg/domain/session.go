package domain

import (
	"fmt"
	"regexp"
	"time"
)

// MaxSessionIDLength bounds session ids so they fit file names and redis keys.
const MaxSessionIDLength = 128

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSessionID accepts letters, digits, '.', '_' and '-', starting with a
// letter or digit. Every credential store applies it, so an id that works on
// one backend works on all of them.
func ValidateSessionID(id string) error {
	if len(id) > MaxSessionIDLength || !validSessionID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// Credentials are the tokens of one session. They replace the browser cookies
// accessToken, refreshToken and role, and are always cleared together.
// Sealed holds the ciphertext written by encrypting stores; it is empty in plain form.
type Credentials struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Role         string    `json:"role,omitempty"`
	Sealed       string    `json:"sealed,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CredentialsFromTokens builds credentials from a login or refresh response.
func CredentialsFromTokens(t TokenPair, now time.Time) Credentials {
	role := t.Role
	if role == "" && t.User != nil {
		role = t.User.Role
	}
	return Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Role:         role,
		UpdatedAt:    now,
	}
}

// Authenticated reports whether the credentials carry a bearer token.
func (c Credentials) Authenticated() bool {
	return c.AccessToken != ""
}
