package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateChallengePair(t *testing.T) {
	assert := assert.New(t)

	pair, err := GenerateChallengePair()

	assert.NoError(err)
	// 64 bytes encode to 86 base64url characters, no padding
	assert.Len(pair.Verifier, 86)
	assert.Regexp(`^[A-Za-z0-9_-]+$`, pair.Verifier)
	assert.NotContains(pair.Verifier, "=")
}

func TestChallengeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	pair, err := GenerateChallengePair()
	assert.NoError(err)

	// independently hashing the verifier must reproduce the challenge
	sum := sha256.Sum256([]byte(pair.Verifier))
	assert.Equal(base64.RawURLEncoding.EncodeToString(sum[:]), pair.Challenge)

	decoded, err := base64.RawURLEncoding.DecodeString(pair.Challenge)
	assert.NoError(err)
	assert.Equal(sum[:], decoded)
}

func TestChallengeDeterministic(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CodeChallenge("some-verifier"), CodeChallenge("some-verifier"))
	assert.NotEqual(CodeChallenge("some-verifier"), CodeChallenge("another-verifier"))
}

func TestVerifiersAreUnique(t *testing.T) {
	assert := assert.New(t)

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		pair, err := GenerateChallengePair()
		assert.NoError(err)
		assert.False(seen[pair.Verifier])
		seen[pair.Verifier] = true
	}
}

func TestGenerateState(t *testing.T) {
	assert := assert.New(t)

	a, err := GenerateState()
	assert.NoError(err)
	assert.NotEmpty(a)

	b, err := GenerateState()
	assert.NoError(err)
	assert.NotEqual(a, b)
}
