package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kpaulsen/apflow/internal/dedup"
	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/ingest"
	"github.com/kpaulsen/apflow/internal/match"
	"github.com/kpaulsen/apflow/internal/retry"
)

// ErrNoVendorMatch is returned by a BillCreator when the invoice vendor
// cannot be resolved to a vendor record in the field-service system. It is
// not retryable; the document goes on hold instead.
var ErrNoVendorMatch = errors.New("no vendor match in field-service system")

// POLookupClient resolves an extracted PO core against the field-service
// system. Transport failures are returned as errors and retried; the
// engine only ever sees a definitive found/not-found answer.
type POLookupClient interface {
	LookupPO(ctx context.Context, core string, doc *document.Document) (match.POLookup, error)
}

// BillCreator files bills downstream. CreateBill finalizes immediately;
// CreateDraft leaves the bill pending human sign-off.
type BillCreator interface {
	CreateBill(ctx context.Context, doc *document.Document, res *match.Result) (string, error)
	CreateDraft(ctx context.Context, doc *document.Document, res *match.Result) (string, error)
}

// Notifier tells humans about work the pipeline could not finish alone.
type Notifier interface {
	HoldCreated(ctx context.Context, h *hold.Hold, doc *document.Document) error
	DraftCreated(ctx context.Context, doc *document.Document, res *match.Result, billID string) error
}

// Processor runs one document through normalize -> dedup -> PO lookup ->
// evaluate -> dispatch. All I/O happens here, before or after the pure
// match.Evaluate call; collaborator calls are wrapped in the retry policy.
type Processor struct {
	cfg     match.Config
	logger  *slog.Logger
	builder *ingest.Builder
	docs    document.Repository
	reserve dedup.Reserver
	holds   *hold.Service
	po      POLookupClient
	bills   BillCreator
	notify  Notifier
	retry   retry.Policy
}

// Params carries the processor's collaborators; all are required except
// Logger and Retry.
type Params struct {
	Config    match.Config
	Logger    *slog.Logger
	Builder   *ingest.Builder
	Documents document.Repository
	Dedup     dedup.Reserver
	Holds     *hold.Service
	POLookup  POLookupClient
	Bills     BillCreator
	Notifier  Notifier
	Retry     retry.Policy
}

func NewProcessor(params Params) *Processor {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	if params.Retry.MaxAttempts == 0 {
		params.Retry = retry.Default
	}

	return &Processor{
		cfg:     params.Config,
		logger:  params.Logger,
		builder: params.Builder,
		docs:    params.Documents,
		reserve: params.Dedup,
		holds:   params.Holds,
		po:      params.POLookup,
		bills:   params.Bills,
		notify:  params.Notifier,
		retry:   params.Retry,
	}
}

// Process ingests one extraction payload end to end and returns the match
// result. Errors are transport or storage failures the caller may retry;
// every expected business outcome (unreadable, duplicate, variance, ...)
// comes back as a disposition, never as an error.
func (p *Processor) Process(ctx context.Context, payload *ingest.Payload) (*match.Result, error) {
	doc := p.builder.Build(ctx, payload)

	if err := p.docs.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("persisting document: %w", err)
	}

	if !doc.TotalsConsistent() {
		p.logger.Warn("document totals do not add up",
			"document_id", doc.ID,
			"subtotal", doc.TotalBeforeTax, "gst", doc.GST, "pst", doc.PST, "total", doc.Total)
	}

	duplicate, err := p.checkDuplicate(ctx, doc)
	if err != nil {
		return nil, err
	}

	lookup, err := p.lookupPO(ctx, doc)
	if err != nil {
		return nil, err
	}

	res := match.Evaluate(doc, lookup, duplicate, p.cfg)

	p.logger.Info("document evaluated",
		"document_id", doc.ID,
		"vendor", doc.VendorKey,
		"invoice_number", doc.InvoiceNumber,
		"disposition", res.Disposition,
		"reasons", res.Reasons,
		"variance", res.Variance)

	if err := p.dispatch(ctx, doc, res); err != nil {
		return nil, err
	}

	return res, nil
}

// checkDuplicate takes the atomic key reservation. Documents without a
// usable identity skip the check; they are caught by the unreadable rule.
func (p *Processor) checkDuplicate(ctx context.Context, doc *document.Document) (bool, error) {
	if doc.VendorKey == "" || doc.InvoiceNumber == "" {
		return false, nil
	}

	key := dedup.Key(doc.VendorKey, doc.InvoiceNumber)
	window := time.Duration(p.cfg.DedupWindowDays) * 24 * time.Hour

	reserved, err := p.reserve.Reserve(ctx, key, doc.ReceivedAt, window)
	if err != nil {
		return false, fmt.Errorf("reserving dedup key: %w", err)
	}

	return !reserved, nil
}

func (p *Processor) lookupPO(ctx context.Context, doc *document.Document) (match.POLookup, error) {
	if doc.POCore == "" {
		return match.POLookup{}, nil
	}

	var lookup match.POLookup

	err := p.retry.Do(ctx, func(ctx context.Context) error {
		var lookupErr error
		lookup, lookupErr = p.po.LookupPO(ctx, doc.POCore, doc)
		return lookupErr
	})
	if err != nil {
		return match.POLookup{}, fmt.Errorf("looking up PO %s: %w", doc.POCore, err)
	}

	return lookup, nil
}

func (p *Processor) dispatch(ctx context.Context, doc *document.Document, res *match.Result) error {
	switch res.Disposition {
	case match.DispositionAutoFinalize:
		return p.finalize(ctx, doc, res)
	case match.DispositionDraftThenAlert:
		return p.draft(ctx, doc, res)
	default:
		return p.placeHold(ctx, doc, res, res.Reasons[0])
	}
}

func (p *Processor) finalize(ctx context.Context, doc *document.Document, res *match.Result) error {
	var billID string

	err := p.retry.Do(ctx, func(ctx context.Context) error {
		var billErr error

		billID, billErr = p.bills.CreateBill(ctx, doc, res)
		if errors.Is(billErr, ErrNoVendorMatch) {
			// Definitive reject, not a transient failure.
			return retry.Permanent(billErr)
		}

		return billErr
	})

	if errors.Is(err, ErrNoVendorMatch) {
		res.Disposition = match.DispositionHoldForReview
		res.Reasons = append(res.Reasons, match.ReasonNoVendorMatch)
		res.Details = append(res.Details, fmt.Sprintf("vendor %q has no match in the field-service system", doc.VendorName))

		return p.placeHold(ctx, doc, res, match.ReasonNoVendorMatch)
	}

	if err != nil {
		return fmt.Errorf("creating bill: %w", err)
	}

	p.logger.Info("bill finalized", "document_id", doc.ID, "bill_id", billID)

	return p.docs.UpdateStatus(ctx, doc.ID, document.StatusFinalized)
}

func (p *Processor) draft(ctx context.Context, doc *document.Document, res *match.Result) error {
	var billID string

	err := p.retry.Do(ctx, func(ctx context.Context) error {
		var billErr error

		billID, billErr = p.bills.CreateDraft(ctx, doc, res)
		if errors.Is(billErr, ErrNoVendorMatch) {
			// Definitive reject, not a transient failure.
			return retry.Permanent(billErr)
		}

		return billErr
	})

	if errors.Is(err, ErrNoVendorMatch) {
		res.Disposition = match.DispositionHoldForReview
		res.Reasons = append(res.Reasons, match.ReasonNoVendorMatch)
		res.Details = append(res.Details, fmt.Sprintf("vendor %q has no match in the field-service system", doc.VendorName))

		return p.placeHold(ctx, doc, res, match.ReasonNoVendorMatch)
	}

	if err != nil {
		return fmt.Errorf("creating draft bill: %w", err)
	}

	if err := p.notify.DraftCreated(ctx, doc, res, billID); err != nil {
		p.logger.Error("draft alert failed", "document_id", doc.ID, "bill_id", billID, "error", err)
	}

	p.logger.Info("draft bill created", "document_id", doc.ID, "bill_id", billID)

	return p.docs.UpdateStatus(ctx, doc.ID, document.StatusDraftPending)
}

func (p *Processor) placeHold(ctx context.Context, doc *document.Document, res *match.Result, reason match.Reason) error {
	h, err := p.holds.Create(ctx, hold.CreateParams{
		DocumentID:       doc.ID,
		Reason:           reason,
		Details:          strings.Join(res.Details, "; "),
		SuggestedActions: suggestedActions(res),
	})
	if err != nil {
		return fmt.Errorf("placing hold: %w", err)
	}

	if err := p.notify.HoldCreated(ctx, h, doc); err != nil {
		p.logger.Error("hold notification failed", "hold_id", h.ID, "error", err)
	}

	p.logger.Info("hold created", "document_id", doc.ID, "hold_id", h.ID, "reason", reason)

	return p.docs.UpdateStatus(ctx, doc.ID, document.StatusHeld)
}

// suggestedActions turns the result into remediation hints a reviewer can
// act on without opening the original PDF.
func suggestedActions(res *match.Result) []string {
	var actions []string

	for _, s := range res.Suggestions {
		actions = append(actions, fmt.Sprintf("link to job %s (%s match, %.0f%% confidence)",
			s.JobID, s.Basis, s.Confidence*100))
	}

	for _, reason := range res.Reasons {
		switch reason {
		case match.ReasonMissingPO:
			actions = append(actions, "request a PO number from the vendor or attach one manually")
		case match.ReasonNegativeQuantity:
			actions = append(actions, "confirm whether this is a credit memo and re-submit marked as one")
		case match.ReasonVarianceExceeded:
			actions = append(actions, "compare billed lines against the PO and approve or dispute the difference")
		case match.ReasonNoTechTruck:
			actions = append(actions, "assign a lead technician or truck to the job, then re-run the match")
		}
	}

	return actions
}
