package document

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kpaulsen/apflow/internal/document"
	"github.com/kpaulsen/apflow/internal/ingest"
	"github.com/kpaulsen/apflow/internal/pipeline"
)

type Handler struct {
	svc       *document.Service
	processor *pipeline.Processor
}

func NewHandler(svc *document.Service, processor *pipeline.Processor) *Handler {
	return &Handler{svc: svc, processor: processor}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

// submit takes one extraction payload, runs it through the pipeline, and
// returns the match result. The body goes through encoding detection, so
// non-UTF-8 OCR exports are accepted.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	payload, err := ingest.DecodePayload(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.processor.Process(r.Context(), payload)
	if err != nil {
		slog.Error("pipeline failed", "error", err)
		http.Error(w, "processing failed", http.StatusBadGateway)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toMatchResponse(res)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := document.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := document.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("vendor_key"); s != "" {
		filter.VendorKey = &s
	}

	if s := r.URL.Query().Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(docs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(doc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
