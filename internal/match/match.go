package match

import (
	"errors"
	"fmt"
	"sort"
)

// Disposition is the classified outcome of evaluating a document.
type Disposition string

const (
	DispositionAutoFinalize    Disposition = "auto_finalize"
	DispositionDraftThenAlert  Disposition = "draft_then_alert"
	DispositionHoldForReview   Disposition = "hold_for_review"
	DispositionNonJobStockHold Disposition = "non_job_stock_hold"
)

// Reason is a machine-readable explanation for a non-finalize outcome.
// The set is closed; holds persist these exact strings.
type Reason string

const (
	ReasonMissingPO        Reason = "missing_po"
	ReasonVarianceExceeded Reason = "variance_exceeded"
	ReasonNegativeQuantity Reason = "negative_quantity"
	ReasonNoTechTruck      Reason = "no_tech_truck"
	ReasonUnreadable       Reason = "unreadable"
	ReasonDuplicate        Reason = "duplicate"
	ReasonNoVendorMatch    Reason = "no_vendor_match"
	ReasonServiceStock     Reason = "service_stock"
)

// SuggestionBasis says which signal a fuzzy job suggestion was built from.
type SuggestionBasis string

const (
	BasisName       SuggestionBasis = "name"
	BasisAddress    SuggestionBasis = "address"
	BasisDateAmount SuggestionBasis = "date_amount"
)

// basisPriority orders tie-broken suggestions: name > address > date_amount.
var basisPriority = map[SuggestionBasis]int{
	BasisName:       0,
	BasisAddress:    1,
	BasisDateAmount: 2,
}

// Suggestion is one ranked fuzzy job candidate offered when PO lookup fails.
type Suggestion struct {
	JobID      string
	JobName    string
	Confidence float64 // in [0,1]
	Basis      SuggestionBasis
}

// SortSuggestions orders suggestions descending by confidence, ties broken
// by basis priority.
func SortSuggestions(suggestions []Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}

		return basisPriority[suggestions[i].Basis] < basisPriority[suggestions[j].Basis]
	})
}

// POLookup is the already-resolved answer from the PO lookup collaborator.
// The engine is only invoked once a definitive found/not-found answer
// exists; transport failures are retried upstream and never reach here.
type POLookup struct {
	Found        bool
	PONumber     string
	OrderedTotal int64 // cents
	JobID        string
	TechnicianID string
	TruckID      string
	VendorID     string
	Suggestions  []Suggestion // fuzzy candidates, only meaningful when !Found
}

// Result is the outcome of evaluating one document.
type Result struct {
	POFound      bool
	PONumber     string
	JobID        string
	TechnicianID string
	VendorID     string
	Variance     int64 // billed - ordered, cents; only meaningful when POFound
	Disposition  Disposition
	Reasons      []Reason // every rule that fired, in rule order
	Details      []string // human-readable, parallel to the decision trail
	Suggestions  []Suggestion
}

// HasReason reports whether the result carries the given reason.
func (r *Result) HasReason(reason Reason) bool {
	for _, got := range r.Reasons {
		if got == reason {
			return true
		}
	}

	return false
}

// Config is the immutable per-run matching configuration snapshot.
type Config struct {
	ToleranceCents      int64 // max |billed - ordered| for auto-finalize
	DraftBandMultiplier int64 // draft-then-alert band = tolerance * multiplier
	DedupWindowDays     int
	RetentionYears      int
}

var ErrInvalidConfig = errors.New("invalid matching config")

// Validate rejects malformed configuration up front; a non-positive
// tolerance would silently hold every document.
func (c Config) Validate() error {
	if c.ToleranceCents <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %d", ErrInvalidConfig, c.ToleranceCents)
	}

	if c.DraftBandMultiplier < 1 {
		return fmt.Errorf("%w: draft band multiplier must be >= 1, got %d", ErrInvalidConfig, c.DraftBandMultiplier)
	}

	if c.DedupWindowDays <= 0 {
		return fmt.Errorf("%w: dedup window must be positive, got %d days", ErrInvalidConfig, c.DedupWindowDays)
	}

	return nil
}

// CalculateVariance returns billed - ordered in signed cents.
func CalculateVariance(billed, ordered int64) int64 {
	return billed - ordered
}

// WithinVariance reports whether |billed - ordered| <= maxVariance.
func WithinVariance(billed, ordered, maxVariance int64) bool {
	v := CalculateVariance(billed, ordered)
	if v < 0 {
		v = -v
	}

	return v <= maxVariance
}
