package helper

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomName appends a random suffix to the prefix, used to keep
// simulations sharing the same broker apart. Panics if the system
// has no randomness available.
func RandomName(prefix string) string {
	buf := make([]byte, 6)
	if _, err := crand.Read(buf); err != nil {
		panic(fmt.Errorf("failed reading random bytes: %v", err))
	}
	return prefix + "-" + hex.EncodeToString(buf)
}
