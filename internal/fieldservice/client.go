package fieldservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/match"
	"github.com/kpaulsen/apflow/internal/pipeline"
)

// Client talks to the field-service system's REST API. It implements
// pipeline.POLookupClient and pipeline.BillCreator.
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type poResponse struct {
	Number       string `json:"number"`
	OrderedTotal int64  `json:"ordered_total_cents"`
	JobID        string `json:"job_id"`
	TechnicianID string `json:"technician_id"`
	TruckID      string `json:"truck_id"`
	VendorID     string `json:"vendor_id"`
}

type jobSuggestion struct {
	JobID      string  `json:"job_id"`
	JobName    string  `json:"job_name"`
	Confidence float64 `json:"confidence"`
	Basis      string  `json:"basis"`
}

// LookupPO resolves a PO core number. A 404 is a definitive not-found, in
// which case the API's fuzzy job candidates (if any) are attached; any
// other failure is returned as an error for the caller's retry policy.
func (c *Client) LookupPO(ctx context.Context, core string, doc *document.Document) (match.POLookup, error) {
	var po poResponse

	status, err := c.get(ctx, "/purchase-orders/"+url.PathEscape(core), &po)
	if err != nil {
		return match.POLookup{}, err
	}

	switch status {
	case http.StatusOK:
		return match.POLookup{
			Found:        true,
			PONumber:     po.Number,
			OrderedTotal: po.OrderedTotal,
			JobID:        po.JobID,
			TechnicianID: po.TechnicianID,
			TruckID:      po.TruckID,
			VendorID:     po.VendorID,
		}, nil
	case http.StatusNotFound:
		suggestions, err := c.suggestJobs(ctx, doc)
		if err != nil {
			// Suggestions are best-effort; a failed fuzzy search must not
			// block the missing-PO hold.
			suggestions = nil
		}

		return match.POLookup{Found: false, Suggestions: suggestions}, nil
	default:
		// Anything else (auth, throttling, bad request) is not a
		// definitive answer; surface it for the caller's retry policy.
		return match.POLookup{}, fmt.Errorf("unexpected status code %d looking up PO %s", status, core)
	}
}

// suggestJobs asks for fuzzy job candidates keyed on the invoice's vendor,
// date, and amount.
func (c *Client) suggestJobs(ctx context.Context, doc *document.Document) ([]match.Suggestion, error) {
	q := url.Values{}
	q.Set("vendor", doc.VendorName)
	q.Set("amount_cents", strconv.FormatInt(doc.Total, 10))

	if !doc.InvoiceDate.IsZero() {
		q.Set("date", doc.InvoiceDate.Format(time.DateOnly))
	}

	var raw []jobSuggestion

	status, err := c.get(ctx, "/jobs/suggest?"+q.Encode(), &raw)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from job suggest", status)
	}

	suggestions := make([]match.Suggestion, 0, len(raw))

	for _, s := range raw {
		suggestions = append(suggestions, match.Suggestion{
			JobID:      s.JobID,
			JobName:    s.JobName,
			Confidence: s.Confidence,
			Basis:      match.SuggestionBasis(s.Basis),
		})
	}

	match.SortSuggestions(suggestions)

	return suggestions, nil
}

type billRequest struct {
	PONumber      string `json:"po_number"`
	JobID         string `json:"job_id"`
	VendorName    string `json:"vendor_name"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	TotalCents    int64  `json:"total_cents"`
	Draft         bool   `json:"draft"`

	Lines []billLine `json:"lines"`
}

type billLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	TotalCents  *int64  `json:"total_cents,omitempty"`
	Category    string  `json:"category"`
}

type billResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateBill(ctx context.Context, doc *document.Document, res *match.Result) (string, error) {
	return c.createBill(ctx, doc, res, false)
}

func (c *Client) CreateDraft(ctx context.Context, doc *document.Document, res *match.Result) (string, error) {
	return c.createBill(ctx, doc, res, true)
}

func (c *Client) createBill(ctx context.Context, doc *document.Document, res *match.Result, draft bool) (string, error) {
	req := billRequest{
		PONumber:      res.PONumber,
		JobID:         res.JobID,
		VendorName:    doc.VendorName,
		InvoiceNumber: doc.InvoiceNumber,
		TotalCents:    doc.Total,
		Draft:         draft,
	}

	if !doc.InvoiceDate.IsZero() {
		req.InvoiceDate = doc.InvoiceDate.Format(time.DateOnly)
	}

	for _, line := range doc.Lines {
		req.Lines = append(req.Lines, billLine{
			Description: line.Description,
			Quantity:    line.Quantity,
			TotalCents:  line.LineTotal,
			Category:    string(line.Category),
		})
	}

	var resp billResponse

	status, err := c.post(ctx, "/bills", req, &resp)
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		return resp.ID, nil
	case http.StatusUnprocessableEntity:
		// The API rejects bills whose vendor it cannot resolve.
		return "", fmt.Errorf("vendor %q: %w", doc.VendorName, pipeline.ErrNoVendorMatch)
	default:
		return "", fmt.Errorf("unexpected status code %d creating bill", status)
	}
}

func (c *Client) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (int, error) {
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Token "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return resp.StatusCode, fmt.Errorf("server error %d from %s", resp.StatusCode, req.URL.Path)
	}

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
