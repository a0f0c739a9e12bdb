package validators

import (
	"errors"
	"strings"
)

var ErrInvalidCartSession = errors.New("invalid cart session")

const maxCartSessionLen = 128

// ParseCartSession validates a client supplied cart session id. Only
// letters, digits, '-' and '_' are accepted so the id is safe inside a Redis key.
func ParseCartSession(raw string) (string, error) {
	session := SanitizeString(raw, 0)
	if session == "" || len(session) > maxCartSessionLen {
		return "", ErrInvalidCartSession
	}
	for _, c := range session {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return "", ErrInvalidCartSession
		}
	}
	return strings.ToLower(session), nil
}
