package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CheckConsistency(ctx context.Context, fiscalYear int) (bool, error)
}

// LedgerHandler handles ledger-wide HTTP requests.
type LedgerHandler struct {
	entryUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(entryUC LedgerService) *LedgerHandler {
	return &LedgerHandler{entryUC: entryUC}
}

// Consistency reports whether posted debits equal posted credits for a
// fiscal year.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	fiscalYear := parseIntQuery(r, "fiscal_year", time.Now().UTC().Year())

	consistent, err := h.entryUC.CheckConsistency(r.Context(), fiscalYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{
		FiscalYear: fiscalYear,
		Consistent: consistent,
	})
}
