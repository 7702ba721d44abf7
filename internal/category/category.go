package category

import (
	"context"
	"strings"
)

// Category is the trade a line item belongs to.
type Category string

const (
	PH      Category = "PH"
	HVAC    Category = "HVAC"
	Unknown Category = "UNKNOWN"
)

// phKeywords and hvacKeywords are the fixed vocabularies the scorer counts.
var phKeywords = []string{
	"pipe", "fitting", "valve", "faucet", "drain", "toilet", "water heater",
	"boiler", "radiator", "pex", "copper", "abs", "coupling", "elbow",
	"plumbing", "sink", "trap", "flange", "solder", "hydronic",
}

var hvacKeywords = []string{
	"furnace", "compressor", "condenser", "refrigerant", "duct", "damper",
	"thermostat", "air handler", "evaporator", "filter", "blower", "vent",
	"heat pump", "coil", "freon", "r410", "r22", "hvac", "plenum", "diffuser",
}

// Keyword classifies a line-item description by counting keyword hits for
// each trade; the strictly higher count wins and any tie (including zero
// hits on both sides) is Unknown. It is deterministic, total, and never
// fails - it is the guaranteed fallback when no classifier is available.
func Keyword(description string) Category {
	desc := strings.ToLower(description)

	ph := score(desc, phKeywords)
	hvac := score(desc, hvacKeywords)

	switch {
	case ph > hvac:
		return PH
	case hvac > ph:
		return HVAC
	default:
		return Unknown
	}
}

func score(desc string, keywords []string) int {
	n := 0

	for _, kw := range keywords {
		n += strings.Count(desc, kw)
	}

	return n
}

// Classifier is an optional external classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, description string) (Category, error)
}

// Service categorizes descriptions, consulting the external classifier
// first when one is configured and falling back to the keyword scorer when
// it errors or answers outside the known set.
type Service struct {
	classifier Classifier
}

func NewService(classifier Classifier) *Service {
	return &Service{classifier: classifier}
}

func (s *Service) Categorize(ctx context.Context, description string) Category {
	if s.classifier != nil {
		if cat, err := s.classifier.Classify(ctx, description); err == nil {
			switch cat {
			case PH, HVAC, Unknown:
				return cat
			}
		}
	}

	return Keyword(description)
}
