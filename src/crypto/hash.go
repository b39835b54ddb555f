package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256 returns the SHA256 hash of the data.
func SHA256(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write(data)
	hash := hasher.Sum(nil)
	return hash
}

// SHA256Hex returns the lowercase hexadecimal SHA256 digest of the
// concatenation of the provided fields, in order.
func SHA256Hex(fields ...string) string {
	return hex.EncodeToString(SHA256([]byte(strings.Join(fields, ""))))
}
