// Package fileid provides stable keys that tie archived runs to their request.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	filePrefix    = "file:"
	contentPrefix = "sha256:"
)

// RequestKey returns a stable key for a request file. Same cleaned path always
// yields the same key, so repeated runs of one request group together in history.
func RequestKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return filePrefix + hex.EncodeToString(hash[:16])
}

// ContentKey fingerprints a request body received without a file (HTTP API).
func ContentKey(data []byte) string {
	hash := sha256.Sum256(data)
	return contentPrefix + hex.EncodeToString(hash[:16])
}
