package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
	"github.com/finbooks/ledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrEmptyCurrency),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrInvalidAccountCode),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountType),
		errors.Is(err, domain.ErrForeignLine),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrDegenerateAmount):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrUnbalanced):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrAlreadyPosted),
		errors.Is(err, domain.ErrEntryAlreadyPosted),
		errors.Is(err, domain.ErrNotPosted),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrImmutableEntry),
		errors.Is(err, domain.ErrDuplicateNumber),
		errors.Is(err, domain.ErrNumberConflict),
		errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrAlreadyReconciled):
		return http.StatusConflict

	case errors.Is(err, domain.ErrNumberingUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
