package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// LineResponse represents a ledger line in API responses.
type LineResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                string          `json:"id"`
	EntryNumber       *int            `json:"entry_number,omitempty"`
	FiscalYear        int             `json:"fiscal_year"`
	EntryDate         time.Time       `json:"entry_date"`
	Description       string          `json:"description"`
	Notes             string          `json:"notes,omitempty"`
	ExternalReference *string         `json:"external_reference,omitempty"`
	SourceInvoiceID   *string         `json:"source_invoice_id,omitempty"`
	Origin            string          `json:"origin"`
	Status            string          `json:"status"`
	ReversedBy        *string         `json:"reversed_by,omitempty"`
	DebitTotal        decimal.Decimal `json:"debit_total"`
	CreditTotal       decimal.Decimal `json:"credit_total"`
	Lines             []LineResponse  `json:"lines"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	lines := make([]LineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = LineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			Side:        string(l.Side),
			Amount:      l.Amount.Amount,
			Currency:    l.Amount.Currency,
			Description: l.Description,
		}
	}

	return &EntryResponse{
		ID:                e.ID,
		EntryNumber:       e.EntryNumber,
		FiscalYear:        e.FiscalYear,
		EntryDate:         e.EntryDate,
		Description:       e.Description,
		Notes:             e.Notes,
		ExternalReference: e.ExternalReference,
		SourceInvoiceID:   e.SourceInvoiceID,
		Origin:            string(e.Origin),
		Status:            string(e.Status),
		ReversedBy:        e.ReversedBy,
		DebitTotal:        e.DebitTotal(),
		CreditTotal:       e.CreditTotal(),
		Lines:             lines,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// CandidateResponse represents a scored match candidate.
type CandidateResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	TransactionID string          `json:"transaction_id"`
	MatchScore    decimal.Decimal `json:"match_score"`
	Reason        string          `json:"reason"`
	AutoEligible  bool            `json:"auto_eligible"`
}

// MatchRunResponse represents one candidate generation pass.
type MatchRunResponse struct {
	Candidates               []CandidateResponse `json:"candidates"`
	DegenerateInvoiceIDs     []string            `json:"degenerate_invoice_ids,omitempty"`
	DegenerateTransactionIDs []string            `json:"degenerate_transaction_ids,omitempty"`
}

// MatchRunFromDomain converts a match run to a response.
func MatchRunFromDomain(run domain.MatchRun, cfg domain.MatchConfig) *MatchRunResponse {
	candidates := make([]CandidateResponse, len(run.Candidates))
	for i, c := range run.Candidates {
		candidates[i] = CandidateResponse{
			InvoiceID:     c.InvoiceID,
			TransactionID: c.TransactionID,
			MatchScore:    c.MatchScore,
			Reason:        c.Reason,
			AutoEligible:  cfg.CanAutoReconcile(c),
		}
	}

	return &MatchRunResponse{
		Candidates:               candidates,
		DegenerateInvoiceIDs:     run.DegenerateInvoiceIDs,
		DegenerateTransactionIDs: run.DegenerateTransactionIDs,
	}
}

// CommitResponse represents the outcome of a committed reconciliation.
type CommitResponse struct {
	InvoiceUpdated     bool           `json:"invoice_updated"`
	TransactionUpdated bool           `json:"transaction_updated"`
	EntryPosted        bool           `json:"entry_posted"`
	Entry              *EntryResponse `json:"entry"`
}

// CommitFromDomain converts a commit result to a response.
func CommitFromDomain(result *usecase.CommitResult) *CommitResponse {
	return &CommitResponse{
		InvoiceUpdated:     result.InvoiceUpdated,
		TransactionUpdated: result.TransactionUpdated,
		EntryPosted:        result.EntryPosted,
		Entry:              EntryFromDomain(result.Entry),
	}
}

// AutoReconcileResponse summarizes one automatic reconciliation batch.
type AutoReconcileResponse struct {
	Committed []CandidateResponse `json:"committed"`
	Queued    []CandidateResponse `json:"queued"`
	Skipped   []CandidateResponse `json:"skipped"`
	RunAt     time.Time           `json:"run_at"`
}

// AutoReconcileFromDomain converts an auto-reconcile result to a response.
func AutoReconcileFromDomain(result *usecase.AutoReconcileResult, cfg domain.MatchConfig) *AutoReconcileResponse {
	convert := func(candidates []domain.Candidate) []CandidateResponse {
		out := make([]CandidateResponse, len(candidates))
		for i, c := range candidates {
			out[i] = CandidateResponse{
				InvoiceID:     c.InvoiceID,
				TransactionID: c.TransactionID,
				MatchScore:    c.MatchScore,
				Reason:        c.Reason,
				AutoEligible:  cfg.CanAutoReconcile(c),
			}
		}
		return out
	}

	return &AutoReconcileResponse{
		Committed: convert(result.Committed),
		Queued:    convert(result.Queued),
		Skipped:   convert(result.Skipped),
		RunAt:     result.RunAt,
	}
}

// ConsistencyResponse reports whether a fiscal year's ledger balances.
type ConsistencyResponse struct {
	FiscalYear int  `json:"fiscal_year"`
	Consistent bool `json:"consistent"`
}

// AuditLogResponse represents an audit log in API responses.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	RequestID    string         `json:"request_id,omitempty"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogsFromDomain converts domain audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// ListAuditLogsResponse wraps a page of audit logs.
type ListAuditLogsResponse struct {
	AuditLogs []*AuditLogResponse `json:"audit_logs"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
