package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kpaulsen/apflow/internal/document"
)

func baseDoc() *document.Document {
	return &document.Document{
		InvoiceNumber: "INV-1",
		Total:         11000,
		Lines: []document.LineItem{
			{Description: "pipe", Quantity: 2},
		},
	}
}

func TestDocument_Readable(t *testing.T) {
	assert.True(t, baseDoc().Readable())

	noNumber := baseDoc()
	noNumber.InvoiceNumber = ""
	assert.False(t, noNumber.Readable())

	noTotal := baseDoc()
	noTotal.Total = 0
	assert.False(t, noTotal.Readable())

	noLines := baseDoc()
	noLines.Lines = nil
	assert.False(t, noLines.Readable())
}

func TestDocument_TotalsConsistent(t *testing.T) {
	doc := baseDoc()
	doc.TotalBeforeTax = 10000
	doc.GST = 500
	doc.PST = 500
	assert.True(t, doc.TotalsConsistent())

	doc.PST = 600
	assert.False(t, doc.TotalsConsistent())

	// Subtotal never extracted: nothing to check against.
	unextracted := baseDoc()
	assert.True(t, unextracted.TotalsConsistent())
}

func TestDocument_HasNegativeQuantity(t *testing.T) {
	doc := baseDoc()
	assert.False(t, doc.HasNegativeQuantity())

	doc.Lines = append(doc.Lines, document.LineItem{Description: "return", Quantity: -1})
	assert.True(t, doc.HasNegativeQuantity())
}
