package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/infrastructure/metrics"
	"github.com/finbooks/ledger/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	CreateDraft(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error)
	ReplaceDraftLines(ctx context.Context, entryID string, inputs []usecase.LineInput) (*domain.LedgerEntry, error)
	UpdateNarrative(ctx context.Context, entryID string, input usecase.UpdateNarrativeInput) (*domain.LedgerEntry, error)
	PostEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	ReverseEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.LedgerEntry, error)
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
	metrics *metrics.Metrics
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, m *metrics.Metrics) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, metrics: m}
}

// Create creates a new draft entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.CreateDraft(r.Context(), req.ToUseCaseInput())
	if err != nil {
		h.metrics.EntryErrors.WithLabelValues("create").Inc()
		writeError(w, mapDomainError(err), "failed to create entry", err.Error())
		return
	}

	h.metrics.DraftsCreated.Inc()
	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.entryUC.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// List lists entries for a fiscal year.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	fiscalYear := parseIntQuery(r, "fiscal_year", time.Now().UTC().Year())
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.entryUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		FiscalYear: fiscalYear,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Post finalizes a draft entry.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	start := time.Now()

	entry, err := h.entryUC.PostEntry(r.Context(), id)
	if err != nil {
		h.metrics.EntryErrors.WithLabelValues("post").Inc()
		writeError(w, mapDomainError(err), "failed to post entry", err.Error())
		return
	}

	h.metrics.EntriesPosted.Inc()
	h.metrics.PostDuration.Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Reverse cancels a posted entry with a balancing counter-entry.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reversal, err := h.entryUC.ReverseEntry(r.Context(), id)
	if err != nil {
		h.metrics.EntryErrors.WithLabelValues("reverse").Inc()
		writeError(w, mapDomainError(err), "failed to reverse entry", err.Error())
		return
	}

	h.metrics.EntriesReversed.Inc()
	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(reversal))
}

// UpdateNarrative edits description, date or notes.
func (h *EntryHandler) UpdateNarrative(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateNarrativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.UpdateNarrative(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update entry", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ReplaceLines swaps the line set of a draft entry.
func (h *EntryHandler) ReplaceLines(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.ReplaceLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.entryUC.ReplaceDraftLines(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to replace lines", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
