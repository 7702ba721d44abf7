package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/category"
)

// Status is the lifecycle state of a processed document.
type Status string

const (
	StatusReceived     Status = "received"
	StatusFinalized    Status = "finalized"
	StatusDraftPending Status = "draft_pending"
	StatusHeld         Status = "held"
)

// Document is one parsed supplier invoice as produced by the extraction
// collaborator, with normalized fields filled in at ingest. It is immutable
// after creation except for Status, which the pipeline advances.
type Document struct {
	ID            uuid.UUID
	VendorName    string // as printed on the invoice
	VendorKey     string // normalize.VendorKey(VendorName)
	InvoiceNumber string
	InvoiceDate   time.Time
	ReceivedAt    time.Time

	// All amounts in integer cents.
	TotalBeforeTax int64
	GST            int64
	PST            int64
	Total          int64

	PONumber string // raw token as extracted, may be empty
	POCore   string // 7-8 digit core, may be empty

	ServiceStock bool // non-job shop/truck stock replenishment
	CreditMemo   bool // explicitly marked credit/return

	Lines []LineItem

	SourcePath  string
	SourceSize  int64
	ContentHash string

	Status    Status
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// LineItem is one billed item. Quantity is signed; negative quantities
// represent credits/returns and trigger a hold unless the document is a
// credit memo.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   *int64
	LineTotal   *int64
	Category    category.Category
	InPricebook bool
}

// Readable reports whether extraction produced the fields the matcher
// cannot work without: an invoice number, a grand total, and line items.
func (d *Document) Readable() bool {
	return d.InvoiceNumber != "" && d.Total != 0 && len(d.Lines) > 0
}

// TotalsConsistent reports whether total equals subtotal plus taxes. A
// mismatch is flagged, not rejected: OCR routinely drops a tax line.
// Documents with no extracted subtotal have nothing to check against.
func (d *Document) TotalsConsistent() bool {
	if d.TotalBeforeTax == 0 {
		return true
	}

	return d.Total == d.TotalBeforeTax+d.GST+d.PST
}

// HasNegativeQuantity reports whether any line carries a negative quantity.
func (d *Document) HasNegativeQuantity() bool {
	for _, line := range d.Lines {
		if line.Quantity < 0 {
			return true
		}
	}

	return false
}
