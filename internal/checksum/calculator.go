package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Calculator computes file checksums.
type Calculator interface {
	// Calculate returns the hex-encoded checksum of content.
	Calculate(content []byte) string
}

// SHA256 implements Calculator using SHA-256.
//
// Before hashing, CRLF and lone CR line endings become LF and trailing
// newlines are dropped. Nothing else is touched: whitespace inside a CSV row
// can be data.
//
// SHA256 is a zero-size type and is safe for concurrent use.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// Calculate computes SHA-256 of normalized content.
func (c SHA256) Calculate(content []byte) string {
	hash := sha256.Sum256(normalizeLineEndings(content))
	return hex.EncodeToString(hash[:])
}

func normalizeLineEndings(content []byte) []byte {
	if bytes.IndexByte(content, '\r') >= 0 {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		content = bytes.ReplaceAll(content, []byte("\r"), []byte("\n"))
	}
	return bytes.TrimRight(content, "\n")
}
