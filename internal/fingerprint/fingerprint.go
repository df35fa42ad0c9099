// Package fingerprint computes deterministic content hashes used as cache
// keys throughout the incremental build cache.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// HashFile streams path through SHA-256 and returns a 64-character
// upper-case hex digest. Fails if the file cannot be opened or read.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return encode(h.Sum(nil)), nil
}

// HashBytes hashes an in-memory byte string under the same digest.
func HashBytes(data []byte) string {
	h := sha256.New()
	h.Write(data)
	return encode(h.Sum(nil))
}

// HashString hashes a UTF-8 string, a convenience wrapper around HashBytes
// for command lines and other text fingerprinted as args-hashes.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashStrings hashes a canonical (already-sorted) sequence of strings as
// one aggregate digest, used for the compile-args and link fingerprints.
func HashStrings(ss []string) string {
	return HashBytes([]byte(strings.Join(ss, "\n")))
}

func encode(sum []byte) string {
	return strings.ToUpper(hex.EncodeToString(sum))
}
