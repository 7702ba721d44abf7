package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/kpaulsen/apflow/internal/category"
	"github.com/kpaulsen/apflow/internal/document"
	enc "github.com/kpaulsen/apflow/internal/encoding"
	"github.com/kpaulsen/apflow/internal/normalize"
)

// Payload is the extraction collaborator's output for one split invoice
// PDF. Monetary fields and dates arrive as the raw strings the OCR read;
// everything is normalized here, not upstream.
type Payload struct {
	VendorName     string `json:"vendor_name"`
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceDate    string `json:"invoice_date"`
	TotalBeforeTax string `json:"total_before_tax"`
	GST            string `json:"gst"`
	PST            string `json:"pst"`
	Total          string `json:"total"`
	PONumber       string `json:"po_number"`
	NonJobStock    bool   `json:"non_job_stock"`
	CreditMemo     bool   `json:"credit_memo"`
	RawText        string `json:"raw_text"`
	SourcePath     string `json:"source_path"`
	SourceSize     int64  `json:"source_size"`
	ContentHash    string `json:"content_hash"`
	ReceivedAt     string `json:"received_at"`

	Lines []PayloadLine `json:"lines"`
}

type PayloadLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	LineTotal   string  `json:"line_total"`
	InPricebook bool    `json:"in_pricebook"`
}

// DecodePayload reads one extraction payload, tolerating non-UTF-8 exports
// from the OCR vendor.
func DecodePayload(r io.Reader) (*Payload, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	var p Payload
	if err := json.NewDecoder(utf8r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return &p, nil
}

// reServiceStock matches the wording suppliers print on shop/truck
// restocking invoices.
var reServiceStock = regexp.MustCompile(`(?i)\b(?:shop|service|truck)\s+stock\b`)

// Builder turns extraction payloads into normalized documents. It owns no
// state beyond the category service and is safe for concurrent use.
type Builder struct {
	categories *category.Service
}

func NewBuilder(categories *category.Service) *Builder {
	return &Builder{categories: categories}
}

// Build normalizes a payload into a Document: vendor key, PO core, parsed
// dates and amounts in cents, categorized lines, and the service-stock
// determination. Missing or unparseable fields are left zero; deciding
// what that means is the disposition engine's job, not ingest's.
func (b *Builder) Build(ctx context.Context, p *Payload) *document.Document {
	doc := &document.Document{
		VendorName:    strings.TrimSpace(p.VendorName),
		InvoiceNumber: strings.TrimSpace(p.InvoiceNumber),
		CreditMemo:    p.CreditMemo,
		SourcePath:    p.SourcePath,
		SourceSize:    p.SourceSize,
		ContentHash:   p.ContentHash,
		Status:        document.StatusReceived,
	}

	doc.VendorKey = normalize.VendorKey(doc.VendorName)

	if t, ok := normalize.ParseInvoiceDate(p.InvoiceDate); ok {
		doc.InvoiceDate = t
	} else if t, ok := normalize.ParseInvoiceDate(p.RawText); ok {
		doc.InvoiceDate = t
	}

	doc.ReceivedAt = time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, p.ReceivedAt); err == nil {
		doc.ReceivedAt = t
	}

	doc.TotalBeforeTax = parseAmount(p.TotalBeforeTax)
	doc.GST = parseAmount(p.GST)
	doc.PST = parseAmount(p.PST)
	doc.Total = parseAmount(p.Total)

	// Prefer the explicitly extracted PO field; fall back to scanning the
	// raw OCR text. Only the first reference counts either way.
	if po, ok := normalize.ExtractPONumber(p.PONumber); ok {
		doc.PONumber = po.Raw
		doc.POCore = po.Core
	} else if po, ok := normalize.ExtractPONumber(p.RawText); ok {
		doc.PONumber = po.Raw
		doc.POCore = po.Core
	}

	// Service stock: either the text says so outright, or the extractor
	// flagged it non-job and there is no PO to match against.
	doc.ServiceStock = reServiceStock.MatchString(p.RawText) ||
		(doc.POCore == "" && p.NonJobStock)

	doc.Lines = make([]document.LineItem, 0, len(p.Lines))

	for _, line := range p.Lines {
		doc.Lines = append(doc.Lines, document.LineItem{
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
			UnitPrice:   parseOptionalAmount(line.UnitPrice),
			LineTotal:   parseOptionalAmount(line.LineTotal),
			Category:    b.categories.Categorize(ctx, line.Description),
			InPricebook: line.InPricebook,
		})
	}

	return doc
}

func parseAmount(s string) int64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}

	cents, err := normalize.ParseCurrency(s)
	if err != nil {
		return 0
	}

	return cents
}

func parseOptionalAmount(s string) *int64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	cents, err := normalize.ParseCurrency(s)
	if err != nil {
		return nil
	}

	return &cents
}
