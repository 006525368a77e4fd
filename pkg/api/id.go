package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	turnIDPrefix = "turn_"
	itemIDPrefix = "item_"
	callIDPrefix = "call_"
)

var turnIDPattern = regexp.MustCompile(`^turn_[a-zA-Z0-9]{24}$`)

// NewTurnID generates a new turn ID with the "turn_" prefix followed by
// 24 cryptographically random alphanumeric characters.
func NewTurnID() string {
	return turnIDPrefix + randomAlphanumeric(idLength)
}

// NewItemID generates a new output item ID.
func NewItemID() string {
	return itemIDPrefix + randomAlphanumeric(idLength)
}

// NewCallID generates a new tool call ID.
func NewCallID() string {
	return callIDPrefix + randomAlphanumeric(idLength)
}

// ValidTurnID checks whether the given string is a well-formed turn ID.
// Malformed prior-turn references are treated as state misses, not
// validation errors, so continuity stays best-effort.
func ValidTurnID(id string) bool {
	return turnIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
