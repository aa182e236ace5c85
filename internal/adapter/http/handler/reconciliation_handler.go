package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/infrastructure/metrics"
	"github.com/finbooks/ledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	GenerateCandidates(ctx context.Context) (domain.MatchRun, error)
	CommitReconciliation(ctx context.Context, input usecase.CommitInput) (*usecase.CommitResult, error)
	AutoReconcile(ctx context.Context) (*usecase.AutoReconcileResult, error)
}

// ReconciliationHandler handles bank reconciliation HTTP requests.
type ReconciliationHandler struct {
	reconUC  ReconciliationService
	matchCfg domain.MatchConfig
	metrics  *metrics.Metrics
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService, matchCfg domain.MatchConfig, m *metrics.Metrics) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconUC:  reconUC,
		matchCfg: matchCfg,
		metrics:  m,
	}
}

// Candidates runs one matching pass and returns the scored pairings.
func (h *ReconciliationHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	run, err := h.reconUC.GenerateCandidates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate candidates", err.Error())
		return
	}

	h.metrics.ReconciliationRuns.Inc()
	h.metrics.CandidatesGenerated.Observe(float64(len(run.Candidates)))
	writeJSON(w, http.StatusOK, dto.MatchRunFromDomain(run, h.matchCfg))
}

// Commit applies a manually confirmed candidate.
func (h *ReconciliationHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req dto.CommitReconciliationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.InvoiceID == "" || req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "invoice_id and transaction_id are required", "")
		return
	}

	result, err := h.reconUC.CommitReconciliation(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to commit reconciliation", err.Error())
		return
	}

	h.metrics.ReconciliationsCommitted.WithLabelValues("manual").Inc()
	h.metrics.MatchScores.Observe(req.MatchScore.InexactFloat64())
	writeJSON(w, http.StatusCreated, dto.CommitFromDomain(result))
}

// AutoReconcile commits all confident matches in one batch.
func (h *ReconciliationHandler) AutoReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconUC.AutoReconcile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "auto reconciliation failed", err.Error())
		return
	}

	for _, c := range result.Committed {
		h.metrics.ReconciliationsCommitted.WithLabelValues("auto").Inc()
		h.metrics.MatchScores.Observe(c.MatchScore.InexactFloat64())
	}

	writeJSON(w, http.StatusOK, dto.AutoReconcileFromDomain(result, h.matchCfg))
}
