package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateToken(t *testing.T) {
	assert := assert.New(t)

	tok, err := GenerateToken(16)
	assert.NoError(err)
	assert.Len(tok, 32)
	assert.Regexp(`^[0-9a-f]+$`, tok)

	other, err := GenerateToken(16)
	assert.NoError(err)
	assert.NotEqual(tok, other)
}

func TestMediaKind(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("image", MediaKind("image/jpeg"))
	assert.Equal("image", MediaKind("image/png"))
	assert.Equal("video", MediaKind("video/mp4"))
	assert.Equal("video", MediaKind("video/webm; codecs=vp9"))
	assert.Equal("image", MediaKind("application/octet-stream"))
	assert.Equal("image", MediaKind(""))
}
