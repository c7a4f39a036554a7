package oauth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token's payload claims, decoded without any
// signature or expiry verification. They are for display only and must
// never gate an authorization decision; that belongs to the server side,
// which actually verifies the token.
type Claims map[string]any

// DecodeClaims decodes the payload segment of a JWT-format token. Any
// malformed input (wrong segment count, bad base64, bad JSON) yields an
// empty map rather than an error, since this path only feeds the UI.
func DecodeClaims(token string) Claims {
	if token == "" {
		return Claims{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}
	}

	return Claims(claims)
}

// DisplayName picks a human-readable name from the usual claim
// fallbacks.
func (c Claims) DisplayName() string {
	for _, key := range []string{"name", "email", "preferred_username", "cognito:username"} {
		if v, ok := c[key].(string); ok && v != "" {
			return v
		}
	}

	return "User"
}

// Subject returns the token subject, or "".
func (c Claims) Subject() string {
	v, _ := c["sub"].(string)
	return v
}
