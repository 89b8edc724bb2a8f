package organizations

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	keyScheme  = "vk_"
	keyBytes   = 32
	prefixSize = len(keyScheme) + 8
)

// HashKey returns the hex sha256 digest stored in place of a raw key.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func generateKey() (raw, prefix, hash string, err error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}

	raw = keyScheme + hex.EncodeToString(buf)
	return raw, raw[:prefixSize], HashKey(raw), nil
}
