package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/match"
	"github.com/kpaulsen/apflow/internal/normalize"
)

// Webhook posts hold and draft-alert events as JSON to a configured
// endpoint (a Teams/Slack relay in production). A notifier failure never
// fails the pipeline; callers log and move on.
type Webhook struct {
	url        string
	recipients []string
	client     *http.Client
}

func NewWebhook(url string, recipients []string) *Webhook {
	return &Webhook{
		url:        url,
		recipients: recipients,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type event struct {
	Type       string   `json:"type"`
	Recipients []string `json:"recipients,omitempty"`
	DocumentID string   `json:"document_id"`
	Vendor     string   `json:"vendor"`
	Invoice    string   `json:"invoice_number"`
	Total      string   `json:"total"`

	HoldID   string   `json:"hold_id,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Details  string   `json:"details,omitempty"`
	Actions  []string `json:"suggested_actions,omitempty"`
	BillID   string   `json:"bill_id,omitempty"`
	Variance string   `json:"variance,omitempty"`
}

func (w *Webhook) HoldCreated(ctx context.Context, h *hold.Hold, doc *document.Document) error {
	return w.send(ctx, event{
		Type:       "hold_created",
		Recipients: w.recipients,
		DocumentID: doc.ID.String(),
		Vendor:     doc.VendorName,
		Invoice:    doc.InvoiceNumber,
		Total:      normalize.FormatCurrency(doc.Total),
		HoldID:     h.ID.String(),
		Reason:     string(h.Reason),
		Details:    h.Details,
		Actions:    h.SuggestedActions,
	})
}

func (w *Webhook) DraftCreated(ctx context.Context, doc *document.Document, res *match.Result, billID string) error {
	return w.send(ctx, event{
		Type:       "draft_needs_review",
		Recipients: w.recipients,
		DocumentID: doc.ID.String(),
		Vendor:     doc.VendorName,
		Invoice:    doc.InvoiceNumber,
		Total:      normalize.FormatCurrency(doc.Total),
		BillID:     billID,
		Variance:   normalize.FormatCurrency(res.Variance),
	})
}

func (w *Webhook) send(ctx context.Context, e event) error {
	if w.url == "" {
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status code %d from webhook", resp.StatusCode)
	}

	return nil
}
