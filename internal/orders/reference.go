package orders

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const referencePrefix = "ORD-"

// NewReferenceNumber produces a customer-facing order reference such as
// ORD-9F3A1C0B24DE. Uniqueness is enforced by the orders table index;
// collisions on 6 random bytes are retried by the caller.
func NewReferenceNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return referencePrefix + strings.ToUpper(hex.EncodeToString(buf))
}
