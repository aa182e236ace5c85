package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// EntryOrigin records whether an entry was produced by the system or typed in.
type EntryOrigin string

const (
	EntryOriginAutomatic EntryOrigin = "automatic"
	EntryOriginManual    EntryOrigin = "manual"
)

// LineSide is the debit/credit side of a ledger line.
type LineSide string

const (
	SideDebit  LineSide = "debit"
	SideCredit LineSide = "credit"
)

// balanceEpsilon is the maximum tolerated debit/credit difference: one cent.
var balanceEpsilon = decimal.New(1, -2)

// LedgerLine is a single debit or credit owned by its LedgerEntry.
type LedgerLine struct {
	ID          string
	EntryID     string
	AccountID   string
	Side        LineSide
	Amount      Money
	Description string
}

// Validate checks line-level invariants. Line amounts must be strictly positive.
func (l *LedgerLine) Validate() error {
	if l.AccountID == "" {
		return ErrAccountNotFound
	}

	if !l.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// LedgerEntry is a balanced set of debit/credit lines representing one
// financial event. It moves Draft -> Posted -> Reversed and never back.
type LedgerEntry struct {
	ID                string
	EntryNumber       *int
	FiscalYear        int
	EntryDate         time.Time
	Description       string
	Notes             string
	ExternalReference *string
	SourceInvoiceID   *string
	Origin            EntryOrigin
	Status            EntryStatus
	ReversedBy        *string
	Lines             []LedgerLine
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewEntry creates a draft entry with no lines. The fiscal year is taken
// from the entry date.
func NewEntry(id string, entryDate time.Time, description string, origin EntryOrigin, externalRef, sourceInvoiceID *string) (*LedgerEntry, error) {
	if isBlank(description) {
		return nil, ErrInvalidDescription
	}

	now := time.Now().UTC()

	return &LedgerEntry{
		ID:                id,
		FiscalYear:        entryDate.Year(),
		EntryDate:         entryDate,
		Description:       description,
		ExternalReference: externalRef,
		SourceInvoiceID:   sourceInvoiceID,
		Origin:            origin,
		Status:            EntryStatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AddLine appends a line while the entry is in draft.
func (e *LedgerEntry) AddLine(line LedgerLine) error {
	if e.Status != EntryStatusDraft {
		return ErrEntryAlreadyPosted
	}

	if line.EntryID != e.ID {
		return ErrForeignLine
	}

	if err := line.Validate(); err != nil {
		return err
	}

	e.Lines = append(e.Lines, line)
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// ReplaceLines swaps the full line set while the entry is in draft.
func (e *LedgerEntry) ReplaceLines(lines []LedgerLine) error {
	if e.Status != EntryStatusDraft {
		return ErrEntryAlreadyPosted
	}

	for i := range lines {
		if lines[i].EntryID != e.ID {
			return ErrForeignLine
		}

		if err := lines[i].Validate(); err != nil {
			return err
		}
	}

	e.Lines = lines
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// DebitTotal sums the debit lines.
func (e *LedgerEntry) DebitTotal() decimal.Decimal {
	return e.sideTotal(SideDebit)
}

// CreditTotal sums the credit lines.
func (e *LedgerEntry) CreditTotal() decimal.Decimal {
	return e.sideTotal(SideCredit)
}

func (e *LedgerEntry) sideTotal(side LineSide) decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		if line.Side == side {
			total = total.Add(line.Amount.Amount)
		}
	}

	return total
}

// IsBalanced reports whether the entry has lines and debits equal credits
// within the one-cent epsilon.
func (e *LedgerEntry) IsBalanced() bool {
	if len(e.Lines) == 0 {
		return false
	}

	diff := e.DebitTotal().Sub(e.CreditTotal()).Abs()

	return diff.LessThan(balanceEpsilon)
}

// AssignNumber sets the sequential entry number exactly once.
func (e *LedgerEntry) AssignNumber(n int) error {
	if n <= 0 {
		return ErrInvalidNumber
	}

	if e.EntryNumber != nil {
		return ErrDuplicateNumber
	}

	e.EntryNumber = &n
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// Post finalizes the entry with number n. The entry must be balanced and
// any previously assigned number must match n.
func (e *LedgerEntry) Post(n int) error {
	if e.Status == EntryStatusPosted || e.Status == EntryStatusReversed {
		return ErrAlreadyPosted
	}

	if !e.IsBalanced() {
		return ErrUnbalanced
	}

	if e.EntryNumber != nil && *e.EntryNumber != n {
		return ErrNumberConflict
	}

	if e.EntryNumber == nil {
		if err := e.AssignNumber(n); err != nil {
			return err
		}
	}

	e.Status = EntryStatusPosted
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// Reverse marks a posted entry as reversed and records the reversing entry.
// Historical lines are never altered; the caller creates the balancing
// counter-entry separately.
func (e *LedgerEntry) Reverse(reversingEntryID string) error {
	if e.Status == EntryStatusReversed {
		return ErrAlreadyReversed
	}

	if e.Status != EntryStatusPosted {
		return ErrNotPosted
	}

	e.Status = EntryStatusReversed
	e.ReversedBy = &reversingEntryID
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// ReversalLines builds net-opposite lines for a reversal entry with the
// given id. Debits become credits and vice versa.
func (e *LedgerEntry) ReversalLines(reversalEntryID string, idGen func() string) []LedgerLine {
	lines := make([]LedgerLine, 0, len(e.Lines))
	for _, line := range e.Lines {
		side := SideDebit
		if line.Side == SideDebit {
			side = SideCredit
		}

		lines = append(lines, LedgerLine{
			ID:          idGen(),
			EntryID:     reversalEntryID,
			AccountID:   line.AccountID,
			Side:        side,
			Amount:      line.Amount,
			Description: line.Description,
		})
	}

	return lines
}

// UpdateDescription changes the narrative. Allowed while draft, or at any
// time for manual entries. Automatic posted entries stay immutable for audit.
func (e *LedgerEntry) UpdateDescription(description string) error {
	if isBlank(description) {
		return ErrInvalidDescription
	}

	if err := e.canEditNarrative(); err != nil {
		return err
	}

	e.Description = description
	e.UpdatedAt = time.Now().UTC()

	return nil
}

// UpdateEntryDate changes the entry date under the same rules as the
// description. The fiscal year follows the date while still in draft; a
// posted entry keeps the year its number was issued in.
func (e *LedgerEntry) UpdateEntryDate(entryDate time.Time) error {
	if err := e.canEditNarrative(); err != nil {
		return err
	}

	e.EntryDate = entryDate
	if e.Status == EntryStatusDraft {
		e.FiscalYear = entryDate.Year()
	}

	e.UpdatedAt = time.Now().UTC()

	return nil
}

// UpdateNotes changes the free-form notes under the narrative edit rules.
func (e *LedgerEntry) UpdateNotes(notes string) error {
	if err := e.canEditNarrative(); err != nil {
		return err
	}

	e.Notes = notes
	e.UpdatedAt = time.Now().UTC()

	return nil
}

func (e *LedgerEntry) canEditNarrative() error {
	if e.Status == EntryStatusDraft {
		return nil
	}

	if e.Origin == EntryOriginManual {
		return nil
	}

	return ErrImmutableEntry
}
