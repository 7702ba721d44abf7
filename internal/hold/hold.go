package hold

import (
	"time"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/match"
)

// Hold records why a document is blocked from automatic processing and,
// once a human acts on it, how it was resolved. Holds are never deleted;
// resolution is a terminal, append-only transition.
type Hold struct {
	ID               uuid.UUID
	DocumentID       uuid.UUID
	Reason           match.Reason
	Details          string
	SuggestedActions []string
	CreatedAt        time.Time

	ResolvedAt *time.Time
	ResolvedBy *string
	Resolution *string
}

// Resolved reports whether the hold has been acted on.
func (h *Hold) Resolved() bool {
	return h.ResolvedAt != nil
}
