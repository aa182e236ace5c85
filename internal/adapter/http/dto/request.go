package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Code: r.Code,
		Name: r.Name,
		Type: domain.AccountType(r.Type),
	}
}

// LineRequest represents one line of an entry.
type LineRequest struct {
	AccountID   string          `json:"account_id"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
}

// CreateEntryRequest represents a request to create a draft entry.
type CreateEntryRequest struct {
	EntryDate         time.Time     `json:"entry_date"`
	Description       string        `json:"description"`
	ExternalReference *string       `json:"external_reference,omitempty"`
	Lines             []LineRequest `json:"lines"`
}

// ToUseCaseInput converts to use case input. API clients always produce
// manual entries; automatic entries only come from internal flows.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.CreateEntryInput {
	return usecase.CreateEntryInput{
		EntryDate:         r.EntryDate,
		Description:       r.Description,
		Origin:            domain.EntryOriginManual,
		ExternalReference: r.ExternalReference,
		Lines:             linesToUseCaseInput(r.Lines),
	}
}

// ReplaceLinesRequest represents a request to swap a draft's lines.
type ReplaceLinesRequest struct {
	Lines []LineRequest `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *ReplaceLinesRequest) ToUseCaseInput() []usecase.LineInput {
	return linesToUseCaseInput(r.Lines)
}

func linesToUseCaseInput(lines []LineRequest) []usecase.LineInput {
	inputs := make([]usecase.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = usecase.LineInput{
			AccountID:   l.AccountID,
			Side:        domain.LineSide(l.Side),
			Amount:      l.Amount,
			Currency:    l.Currency,
			Description: l.Description,
		}
	}

	return inputs
}

// UpdateNarrativeRequest represents an edit to an entry's narrative fields.
// Absent fields are left untouched.
type UpdateNarrativeRequest struct {
	Description *string    `json:"description,omitempty"`
	EntryDate   *time.Time `json:"entry_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateNarrativeRequest) ToUseCaseInput() usecase.UpdateNarrativeInput {
	return usecase.UpdateNarrativeInput{
		Description: r.Description,
		EntryDate:   r.EntryDate,
		Notes:       r.Notes,
	}
}

// CommitReconciliationRequest represents a manual confirmation of a candidate.
type CommitReconciliationRequest struct {
	InvoiceID     string          `json:"invoice_id"`
	TransactionID string          `json:"transaction_id"`
	MatchScore    decimal.Decimal `json:"match_score"`
}

// ToUseCaseInput converts to use case input.
func (r *CommitReconciliationRequest) ToUseCaseInput() usecase.CommitInput {
	return usecase.CommitInput{
		InvoiceID:     r.InvoiceID,
		TransactionID: r.TransactionID,
		MatchScore:    r.MatchScore,
		Auto:          false,
	}
}
