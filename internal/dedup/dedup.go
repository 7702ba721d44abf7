package dedup

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// separator joins vendor and invoice number in a key. It cannot appear in
// the normalized invoice number, so keys never collide across vendors.
const separator = "|"

// Key derives the stable identity key used to detect repeat submissions:
// vendor identifier joined with the invoice number, lowercased and with
// all whitespace stripped. Key("V1", "INV 001") == Key("V1", "inv001").
func Key(vendorID, invoiceNumber string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(invoiceNumber) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return vendorID + separator + b.String()
}

// Reserver takes the atomic first-seen reservation for a key. Reserve
// returns true when this document won the key for the window and false
// when the key was already taken within the window (a duplicate). The
// reservation must be atomic in the backing store: of two racing
// documents with the same key, at most one sees true.
//
//go:generate mockgen -source=dedup.go -destination=reserver_mock.go -package=dedup
type Reserver interface {
	Reserve(ctx context.Context, key string, receivedAt time.Time, window time.Duration) (bool, error)
}
