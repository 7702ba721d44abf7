package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/category"
	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/match"
)

type documentResponse struct {
	ID             uuid.UUID       `json:"id"`
	VendorName     string          `json:"vendor_name"`
	VendorKey      string          `json:"vendor_key"`
	InvoiceNumber  string          `json:"invoice_number"`
	InvoiceDate    string          `json:"invoice_date,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
	TotalBeforeTax int64           `json:"total_before_tax"`
	GST            int64           `json:"gst"`
	PST            int64           `json:"pst"`
	Total          int64           `json:"total"`
	PONumber       string          `json:"po_number,omitempty"`
	POCore         string          `json:"po_core,omitempty"`
	ServiceStock   bool            `json:"service_stock"`
	CreditMemo     bool            `json:"credit_memo"`
	Status         document.Status `json:"status"`
	Lines          []lineResponse  `json:"lines,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

type lineResponse struct {
	Description string            `json:"description"`
	Quantity    float64           `json:"quantity"`
	UnitPrice   *int64            `json:"unit_price,omitempty"`
	LineTotal   *int64            `json:"line_total,omitempty"`
	Category    category.Category `json:"category"`
	InPricebook bool              `json:"in_pricebook"`
}

func toResponse(doc *document.Document) documentResponse {
	resp := documentResponse{
		ID:             doc.ID,
		VendorName:     doc.VendorName,
		VendorKey:      doc.VendorKey,
		InvoiceNumber:  doc.InvoiceNumber,
		ReceivedAt:     doc.ReceivedAt,
		TotalBeforeTax: doc.TotalBeforeTax,
		GST:            doc.GST,
		PST:            doc.PST,
		Total:          doc.Total,
		PONumber:       doc.PONumber,
		POCore:         doc.POCore,
		ServiceStock:   doc.ServiceStock,
		CreditMemo:     doc.CreditMemo,
		Status:         doc.Status,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	if !doc.InvoiceDate.IsZero() {
		resp.InvoiceDate = doc.InvoiceDate.Format(time.DateOnly)
	}

	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			Category:    line.Category,
			InPricebook: line.InPricebook,
		})
	}

	return resp
}

func toResponseList(docs []*document.Document) []documentResponse {
	resp := make([]documentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = toResponse(doc)
	}

	return resp
}

type matchResultResponse struct {
	POFound      bool                 `json:"po_found"`
	PONumber     string               `json:"po_number,omitempty"`
	JobID        string               `json:"job_id,omitempty"`
	TechnicianID string               `json:"technician_id,omitempty"`
	VendorID     string               `json:"vendor_id,omitempty"`
	Variance     int64                `json:"variance"`
	Disposition  match.Disposition    `json:"disposition"`
	Reasons      []match.Reason       `json:"reasons,omitempty"`
	Details      []string             `json:"details,omitempty"`
	Suggestions  []suggestionResponse `json:"suggestions,omitempty"`
}

type suggestionResponse struct {
	JobID      string                `json:"job_id"`
	JobName    string                `json:"job_name,omitempty"`
	Confidence float64               `json:"confidence"`
	Basis      match.SuggestionBasis `json:"basis"`
}

func toMatchResponse(res *match.Result) matchResultResponse {
	resp := matchResultResponse{
		POFound:      res.POFound,
		PONumber:     res.PONumber,
		JobID:        res.JobID,
		TechnicianID: res.TechnicianID,
		VendorID:     res.VendorID,
		Variance:     res.Variance,
		Disposition:  res.Disposition,
		Reasons:      res.Reasons,
		Details:      res.Details,
	}

	for _, s := range res.Suggestions {
		resp.Suggestions = append(resp.Suggestions, suggestionResponse{
			JobID:      s.JobID,
			JobName:    s.JobName,
			Confidence: s.Confidence,
			Basis:      s.Basis,
		})
	}

	return resp
}
