package domain

import "time"

// Event types
const (
	EventTypeEntryPosted             = "entry.posted"
	EventTypeEntryReversed           = "entry.reversed"
	EventTypeReconciliationCommitted = "reconciliation.committed"
)

// Aggregate types
const (
	AggregateTypeEntry          = "entry"
	AggregateTypeReconciliation = "reconciliation"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryPostedEvent payload
type EntryPostedEvent struct {
	EntryID     string `json:"entry_id"`
	EntryNumber int    `json:"entry_number"`
	FiscalYear  int    `json:"fiscal_year"`
	DebitTotal  string `json:"debit_total"`
	Currency    string `json:"currency"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	ReversalEntryID string `json:"reversal_entry_id"`
	OriginalEntryID string `json:"original_entry_id"`
	FiscalYear      int    `json:"fiscal_year"`
}

// ReconciliationCommittedEvent payload
type ReconciliationCommittedEvent struct {
	InvoiceID     string `json:"invoice_id"`
	TransactionID string `json:"transaction_id"`
	EntryID       string `json:"entry_id"`
	MatchScore    string `json:"match_score"`
	Auto          bool   `json:"auto"`
}
