package hold

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/match"
)

var (
	ErrNotFound = errors.New("hold not found")

	// ErrAlreadyResolved is returned when a hold is resolved twice. The
	// second resolution signals a workflow bug upstream and must surface,
	// never be silently accepted.
	ErrAlreadyResolved = errors.New("hold already resolved")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=hold
type Repository interface {
	CreateHold(ctx context.Context, h *Hold) error
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	ListHolds(ctx context.Context, filter ListFilter) ([]*Hold, error)
	ResolveHold(ctx context.Context, id uuid.UUID, resolvedBy, resolution string) (*Hold, error)
}

type ListFilter struct {
	Reason     *match.Reason
	Unresolved bool
	DocumentID *uuid.UUID
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	DocumentID       uuid.UUID
	Reason           match.Reason
	Details          string
	SuggestedActions []string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Hold, error) {
	h := &Hold{
		DocumentID:       params.DocumentID,
		Reason:           params.Reason,
		Details:          params.Details,
		SuggestedActions: params.SuggestedActions,
	}

	if err := s.repo.CreateHold(ctx, h); err != nil {
		return nil, fmt.Errorf("creating hold: %w", err)
	}

	return h, nil
}

// Resolve marks the hold resolved. Resolving a missing or already-resolved
// hold fails; the caller decides whether that is a retry bug or stale UI.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, resolvedBy, resolution string) (*Hold, error) {
	if resolvedBy == "" {
		return nil, fmt.Errorf("resolved_by is required")
	}

	return s.repo.ResolveHold(ctx, id, resolvedBy, resolution)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hold, error) {
	return s.repo.GetHold(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Hold, error) {
	return s.repo.ListHolds(ctx, filter)
}
