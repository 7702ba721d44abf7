package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kpaulsen/apflow/internal/dedup"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name          string
		vendorID      string
		invoiceNumber string
		want          string
	}{
		{name: "Simple", vendorID: "acesupply", invoiceNumber: "INV-100", want: "acesupply|inv-100"},
		{name: "StripsWhitespace", vendorID: "V1", invoiceNumber: "INV 001", want: "V1|inv001"},
		{name: "StripsTabsAndNewlines", vendorID: "V1", invoiceNumber: " IN V\t00 1\n", want: "V1|inv001"},
		{name: "Lowercases", vendorID: "V1", invoiceNumber: "ABC123", want: "V1|abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedup.Key(tt.vendorID, tt.invoiceNumber))
		})
	}
}

func TestKey_CaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, dedup.Key("V1", "INV 001"), dedup.Key("V1", "inv001"))
}

func TestKey_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, dedup.Key("a", "b"), dedup.Key("b", "a"))
}
