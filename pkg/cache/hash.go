package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keyVersion is mixed into every hashed key. Bump it when the encoding of
// cached trees or artifacts changes.
const keyVersion = 1

// hashKey returns prefix:sha256(json([version, parts...])).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(append([]any{keyVersion}, parts...))
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 12 hex digits of a hash, for display.
func ShortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
