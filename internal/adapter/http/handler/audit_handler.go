package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/finbooks/ledger/internal/adapter/http/dto"
	"github.com/finbooks/ledger/internal/domain"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AuditHandler handles audit log HTTP requests.
type AuditHandler struct {
	audits AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audits AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List returns audit logs filtered by action, resource type and resource ID.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Limit:        parseIntQuery(r, "limit", 50),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date", "expected RFC 3339 timestamp")
			return
		}
		filter.StartDate = &ts
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date", "expected RFC 3339 timestamp")
			return
		}
		filter.EndDate = &ts
	}

	logs, err := h.audits.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAuditLogsResponse{
		AuditLogs: dto.AuditLogsFromDomain(logs),
	})
}
