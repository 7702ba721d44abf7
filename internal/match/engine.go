package match

import (
	"fmt"

	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/normalize"
)

// Evaluate classifies one document against its PO lookup answer. It is a
// pure function of its inputs: no I/O, no shared state, safe to call
// concurrently for distinct documents. The dedup reservation has already
// been taken (or lost) by the caller and arrives as the duplicate flag.
//
// Rule order is a deliberate precedence: correctness gates (readability,
// identity, duplication) run before financial gates, because a variance
// against a missing or misidentified PO is meaningless. The first rule
// that fires decides the disposition, but every rule that fires
// contributes its reason.
func Evaluate(doc *document.Document, lookup POLookup, duplicate bool, cfg Config) *Result {
	res := &Result{
		POFound:      lookup.Found,
		PONumber:     lookup.PONumber,
		JobID:        lookup.JobID,
		TechnicianID: lookup.TechnicianID,
		VendorID:     lookup.VendorID,
		Disposition:  DispositionAutoFinalize,
	}

	decided := false

	decide := func(d Disposition) {
		if !decided {
			res.Disposition = d
			decided = true
		}
	}

	// 1. Unreadable: extraction did not produce enough to match on.
	if !doc.Readable() {
		res.Reasons = append(res.Reasons, ReasonUnreadable)
		res.Details = append(res.Details, "extraction missing invoice number, total, or line items")
		decide(DispositionHoldForReview)
	}

	// 2. Service/shop stock runs on its own track, never against a job PO.
	if doc.ServiceStock {
		res.Reasons = append(res.Reasons, ReasonServiceStock)
		res.Details = append(res.Details, "non-job stock replenishment")
		decide(DispositionNonJobStockHold)
	}

	// 3. Duplicate submission, regardless of PO status.
	if duplicate {
		res.Reasons = append(res.Reasons, ReasonDuplicate)
		res.Details = append(res.Details, fmt.Sprintf("invoice %s from %s already received within the last %d days",
			doc.InvoiceNumber, doc.VendorName, cfg.DedupWindowDays))
		decide(DispositionHoldForReview)
	}

	// 4. No PO extracted, or the core did not resolve.
	if doc.POCore == "" || !lookup.Found {
		res.Reasons = append(res.Reasons, ReasonMissingPO)

		if doc.POCore == "" {
			res.Details = append(res.Details, "no PO number found on the invoice")
		} else {
			res.Details = append(res.Details, fmt.Sprintf("PO %s not found in the field-service system", doc.POCore))
		}

		decide(DispositionHoldForReview)

		// Fuzzy candidates are only offered when the lookup failed outright.
		if len(lookup.Suggestions) > 0 {
			res.Suggestions = append(res.Suggestions, lookup.Suggestions...)
			SortSuggestions(res.Suggestions)
		}
	}

	// 5. Negative quantity without a credit memo marking.
	if doc.HasNegativeQuantity() && !doc.CreditMemo {
		res.Reasons = append(res.Reasons, ReasonNegativeQuantity)
		res.Details = append(res.Details, "negative line quantity on a document not marked as a credit/return")
		decide(DispositionHoldForReview)
	}

	// Rules 6-7 compare against the matched PO and need a definitive match.
	if !lookup.Found {
		return res
	}

	// 6. A matched job with neither a lead technician nor a truck cannot be
	// costed anywhere.
	if lookup.JobID != "" && lookup.TechnicianID == "" && lookup.TruckID == "" {
		res.Reasons = append(res.Reasons, ReasonNoTechTruck)
		res.Details = append(res.Details, fmt.Sprintf("job %s has no lead technician or truck association", lookup.JobID))
		decide(DispositionHoldForReview)
	}

	// 7. Variance against the ordered total.
	res.Variance = CalculateVariance(doc.Total, lookup.OrderedTotal)

	switch {
	case WithinVariance(doc.Total, lookup.OrderedTotal, cfg.ToleranceCents):
		// Within tolerance; nothing to add.
	case WithinVariance(doc.Total, lookup.OrderedTotal, cfg.ToleranceCents*cfg.DraftBandMultiplier):
		res.Reasons = append(res.Reasons, ReasonVarianceExceeded)
		res.Details = append(res.Details, fmt.Sprintf("variance %s exceeds tolerance %s but is within the review band",
			normalize.FormatCurrency(res.Variance), normalize.FormatCurrency(cfg.ToleranceCents)))
		decide(DispositionDraftThenAlert)
	default:
		res.Reasons = append(res.Reasons, ReasonVarianceExceeded)
		res.Details = append(res.Details, fmt.Sprintf("variance %s exceeds tolerance %s",
			normalize.FormatCurrency(res.Variance), normalize.FormatCurrency(cfg.ToleranceCents)))
		decide(DispositionHoldForReview)
	}

	return res
}
