package domain

import "time"

// InvoiceStatus is the reconciliation-relevant invoice state. The invoice
// subsystem owns the full lifecycle; the matcher only reads these.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is the minimal invoice view the matching engine needs.
type Invoice struct {
	ID        string
	Amount    Money
	DueDate   *time.Time
	IssueDate time.Time
	Status    InvoiceStatus
}

// AnchorDate is the date candidates are scored against: the due date when
// present, otherwise the issue date.
func (i *Invoice) AnchorDate() time.Time {
	if i.DueDate != nil {
		return *i.DueDate
	}

	return i.IssueDate
}

// Matchable reports whether the invoice is still open for reconciliation.
func (i *Invoice) Matchable() bool {
	return i.Status != InvoiceStatusPaid && i.Status != InvoiceStatusCancelled
}

// BankTransaction is the minimal bank statement view the matching engine needs.
type BankTransaction struct {
	ID              string
	Amount          Money
	TransactionDate time.Time
	Reconciled      bool
}
