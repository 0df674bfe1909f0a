package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ArtifactKey returns the key of an artifact rendered in format from the
// serialized world state. The key has the form "artifact:<format>:<hash>".
func ArtifactKey(format string, state []byte) string {
	return "artifact:" + strings.ToLower(format) + ":" + Hash(state)
}

// keyType returns the prefix of key up to the first colon, used to label
// hook events.
func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
