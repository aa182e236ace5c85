package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
)

// EntryUseCase handles ledger entry business logic: drafting, posting,
// reversal. The aggregate stays pure; persistence and numbering are
// orchestrated here.
type EntryUseCase struct {
	txManager   TransactionManager
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	numbering   *NumberingAuthority
	idGen       IDGenerator
	retrier     Retrier
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	numbering *NumberingAuthority,
	idGen IDGenerator,
	retrier Retrier,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:   txManager,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		numbering:   numbering,
		idGen:       idGen,
		retrier:     retrier,
	}
}

// LineInput represents one line of a draft entry.
type LineInput struct {
	AccountID   string
	Side        domain.LineSide
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// CreateEntryInput represents input for creating a draft entry.
type CreateEntryInput struct {
	EntryDate         time.Time
	Description       string
	Origin            domain.EntryOrigin
	ExternalReference *string
	SourceInvoiceID   *string
	Lines             []LineInput
}

// CreateDraft creates a new draft entry with the given lines. The entry is
// not numbered and not posted.
func (uc *EntryUseCase) CreateDraft(ctx context.Context, input CreateEntryInput) (*domain.LedgerEntry, error) {
	entry, err := domain.NewEntry(uc.idGen.Generate(), input.EntryDate, input.Description, input.Origin, input.ExternalReference, input.SourceInvoiceID)
	if err != nil {
		return nil, err
	}

	lines, err := uc.buildLines(ctx, entry.ID, input.Lines)
	if err != nil {
		return nil, err
	}

	if err := entry.ReplaceLines(lines); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ReplaceDraftLines swaps the line set of a draft entry. The entry row is
// locked for the duration so a concurrent posting cannot slip in between the
// draft check and the line write.
func (uc *EntryUseCase) ReplaceDraftLines(ctx context.Context, entryID string, inputs []LineInput) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	lines, err := uc.buildLines(ctx, entry.ID, inputs)
	if err != nil {
		return nil, err
	}

	if err := entry.ReplaceLines(lines); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.ReplaceLines(ctx, tx, entry.ID, entry.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// UpdateNarrativeInput represents an edit to the entry narrative.
type UpdateNarrativeInput struct {
	Description *string
	EntryDate   *time.Time
	Notes       *string
}

// UpdateNarrative edits description, date or notes. The aggregate enforces
// the edit rules (draft always, posted only when manual).
func (uc *EntryUseCase) UpdateNarrative(ctx context.Context, entryID string, input UpdateNarrativeInput) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		if err := entry.UpdateDescription(*input.Description); err != nil {
			return nil, err
		}
	}

	if input.EntryDate != nil {
		if err := entry.UpdateEntryDate(*input.EntryDate); err != nil {
			return nil, err
		}
	}

	if input.Notes != nil {
		if err := entry.UpdateNotes(*input.Notes); err != nil {
			return nil, err
		}
	}

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// PostEntry finalizes a draft entry: it must balance, receives the next
// sequential number for its fiscal year, and freezes. Number assignment and
// the status transition commit atomically or not at all.
func (uc *EntryUseCase) PostEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	var posted *domain.LedgerEntry

	err := uc.retrier.Retry(ctx, func() error {
		entry, err := uc.postOnce(ctx, entryID)
		if err != nil {
			return err
		}

		posted = entry

		return nil
	})
	if err != nil {
		return nil, err
	}

	return posted, nil
}

func (uc *EntryUseCase) postOnce(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(entry)

	n, err := uc.numbering.NextNumber(ctx, tx, entry.FiscalYear)
	if err != nil {
		return nil, err
	}

	if err := entry.Post(n); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.writePostedEvent(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Action:       string(domain.AuditActionEntryPost),
		ResourceType: domain.AggregateTypeEntry,
		ResourceID:   entry.ID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// ReverseEntry cancels a posted entry by creating and posting a new entry
// with net-opposite lines, then linking the original to it. The original's
// lines are never touched.
func (uc *EntryUseCase) ReverseEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	// Fail early before building the counter-entry.
	switch original.Status {
	case domain.EntryStatusReversed:
		return nil, domain.ErrAlreadyReversed
	case domain.EntryStatusPosted:
	default:
		return nil, domain.ErrNotPosted
	}

	reversal, err := domain.NewEntry(
		uc.idGen.Generate(),
		time.Now().UTC(),
		fmt.Sprintf("Reversal of entry %d/%d: %s", original.FiscalYear, *original.EntryNumber, original.Description),
		domain.EntryOriginAutomatic,
		original.ExternalReference,
		original.SourceInvoiceID,
	)
	if err != nil {
		return nil, err
	}

	if err := reversal.ReplaceLines(original.ReversalLines(reversal.ID, uc.idGen.Generate)); err != nil {
		return nil, err
	}

	n, err := uc.numbering.NextNumber(ctx, tx, reversal.FiscalYear)
	if err != nil {
		return nil, err
	}

	if err := reversal.Post(n); err != nil {
		return nil, err
	}

	if err := original.Reverse(reversal.ID); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.CreateTx(ctx, tx, reversal); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Update(ctx, tx, original); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   original.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryReversed,
		Payload: map[string]any{
			"reversal_entry_id": reversal.ID,
			"original_entry_id": original.ID,
			"fiscal_year":       reversal.FiscalYear,
		},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Action:       string(domain.AuditActionEntryReverse),
		ResourceType: domain.AggregateTypeEntry,
		ResourceID:   original.ID,
		AfterState:   domain.MarshalState(reversal),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return reversal, nil
}

// GetEntry retrieves an entry with its lines.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	FiscalYear int
	Limit      int
	Offset     int
}

// ListEntries lists entries for a fiscal year.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.entryRepo.ListByFiscalYear(ctx, input.FiscalYear, limit, offset)
}

// CheckConsistency verifies that posted debits equal posted credits for the
// fiscal year.
func (uc *EntryUseCase) CheckConsistency(ctx context.Context, fiscalYear int) (bool, error) {
	totalDebits, totalCredits, err := uc.ledgerRepo.CheckConsistency(ctx, fiscalYear)
	if err != nil {
		return false, err
	}

	return totalDebits.Equal(totalCredits), nil
}

func (uc *EntryUseCase) buildLines(ctx context.Context, entryID string, inputs []LineInput) ([]domain.LedgerLine, error) {
	lines := make([]domain.LedgerLine, 0, len(inputs))
	for _, in := range inputs {
		account, err := uc.accountRepo.GetByID(ctx, in.AccountID)
		if err != nil {
			return nil, err
		}

		if !account.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, account.Code)
		}

		amount, err := domain.NewMoney(in.Amount, in.Currency)
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.LedgerLine{
			ID:          uc.idGen.Generate(),
			EntryID:     entryID,
			AccountID:   in.AccountID,
			Side:        in.Side,
			Amount:      amount,
			Description: in.Description,
		})
	}

	return lines, nil
}

func (uc *EntryUseCase) writePostedEvent(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error {
	currency := ""
	if len(entry.Lines) > 0 {
		currency = entry.Lines[0].Amount.Currency
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryPosted,
		Payload: map[string]any{
			"entry_id":     entry.ID,
			"entry_number": *entry.EntryNumber,
			"fiscal_year":  entry.FiscalYear,
			"debit_total":  entry.DebitTotal().String(),
			"currency":     currency,
		},
		CreatedAt: time.Now().UTC(),
	})
}
