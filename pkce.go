package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/weshareshare/oauth-pkce-golang/internal/helpers"
)

// ErrEntropyUnavailable is returned when the platform cannot supply
// secure randomness. There is no recovery; sign-in cannot proceed.
var ErrEntropyUnavailable = errors.New("secure random source unavailable")

// verifierByteLen is the raw entropy drawn for a verifier. 64 bytes
// encodes to an 86-character base64url string, well above the 43
// character minimum from RFC 7636.
const verifierByteLen = 64

type ChallengePair struct {
	Verifier  string
	Challenge string
}

// GenerateChallengePair creates a fresh PKCE verifier and its S256
// challenge. The verifier is base64url with no padding; the challenge is
// the base64url-encoded SHA-256 digest of the verifier's bytes, so the
// authorization server can recompute it at token-exchange time.
func GenerateChallengePair() (*ChallengePair, error) {
	b := make([]byte, verifierByteLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(b)

	return &ChallengePair{
		Verifier:  verifier,
		Challenge: CodeChallenge(verifier),
	}, nil
}

// CodeChallenge computes the S256 challenge for a verifier.
func CodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GenerateState creates a random anti-CSRF state token for the
// authorization redirect.
func GenerateState() (string, error) {
	state, err := helpers.GenerateToken(16)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	return state, nil
}
