package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeMessage lower-cases the message and collapses runs of whitespace.
func NormalizeMessage(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

// ContainsAny reports whether message contains any keyword, ignoring case.
func ContainsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// HashMessage returns the hex SHA-256 of the normalised message.
func HashMessage(message string) string {
	sum := sha256.Sum256([]byte(NormalizeMessage(message)))
	return hex.EncodeToString(sum[:])
}

// StripCodeFence removes a surrounding markdown code fence, as models often
// wrap JSON answers in ```json ... ```.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
