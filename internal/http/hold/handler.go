package hold

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/hold"
	"github.com/kpaulsen/apflow/internal/match"
)

type Handler struct {
	svc *hold.Service
}

func NewHandler(svc *hold.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/resolve", h.resolve)
}

type holdResponse struct {
	ID               uuid.UUID    `json:"id"`
	DocumentID       uuid.UUID    `json:"document_id"`
	Reason           match.Reason `json:"reason"`
	Details          string       `json:"details"`
	SuggestedActions []string     `json:"suggested_actions,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	ResolvedAt       *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy       *string      `json:"resolved_by,omitempty"`
	Resolution       *string      `json:"resolution,omitempty"`
}

func toResponse(h *hold.Hold) holdResponse {
	return holdResponse{
		ID:               h.ID,
		DocumentID:       h.DocumentID,
		Reason:           h.Reason,
		Details:          h.Details,
		SuggestedActions: h.SuggestedActions,
		CreatedAt:        h.CreatedAt,
		ResolvedAt:       h.ResolvedAt,
		ResolvedBy:       h.ResolvedBy,
		Resolution:       h.Resolution,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := hold.ListFilter{}

	if s := r.URL.Query().Get("reason"); s != "" {
		reason := match.Reason(s)
		filter.Reason = &reason
	}

	if r.URL.Query().Get("unresolved") == "true" {
		filter.Unresolved = true
	}

	if s := r.URL.Query().Get("document_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.DocumentID = &id
		}
	}

	holds, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]holdResponse, len(holds))
	for i, item := range holds {
		resp[i] = toResponse(item)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, hold.ErrNotFound) {
			http.Error(w, "hold not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(item)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type resolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Resolution string `json:"resolution"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.ResolvedBy == "" {
		http.Error(w, "resolved_by is required", http.StatusBadRequest)
		return
	}

	item, err := h.svc.Resolve(r.Context(), id, req.ResolvedBy, req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, hold.ErrNotFound):
			http.Error(w, "hold not found", http.StatusNotFound)
		case errors.Is(err, hold.ErrAlreadyResolved):
			http.Error(w, "hold already resolved", http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(item)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
