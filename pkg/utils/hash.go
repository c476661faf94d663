package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex-encoded SHA-256 of data. Uploads are logged with
// it so identical re-uploads can be spotted.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
