package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload for gcdserver users. Subject carries the user
// id; Email is what snapshot generation records as the generating actor.
type Claims struct {
	Email    string   `json:"email"`
	Username string   `json:"preferred_username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the identity recorded on generated snapshots: the email when
// present, else the subject.
func (c *Claims) Actor() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
