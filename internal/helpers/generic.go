package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"mime"
	"strings"
)

// GenerateToken returns n random bytes hex-encoded.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// MediaKind classifies an upload by content type. Anything that is not
// a video is treated as an image, matching the backend's two-kind model.
func MediaKind(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}

	if strings.HasPrefix(mt, "video/") {
		return "video"
	}

	return "image"
}
