package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
)

// ReconciliationAccounts names the two chart-of-accounts entries a
// reconciliation posting moves money between: the bank account is debited,
// the receivable account credited.
type ReconciliationAccounts struct {
	BankAccountID       string
	ReceivableAccountID string
}

// ReconciliationUseCase pairs open invoices with bank transactions and
// commits accepted matches: invoice paid, transaction reconciled, balancing
// entry posted, all in one transaction or not at all.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	invoiceRepo InvoiceRepository
	bankTxRepo  BankTransactionRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	numbering   *NumberingAuthority
	idGen       IDGenerator
	matchCfg    domain.MatchConfig
	accounts    ReconciliationAccounts
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	txManager TransactionManager,
	invoiceRepo InvoiceRepository,
	bankTxRepo BankTransactionRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	numbering *NumberingAuthority,
	idGen IDGenerator,
	matchCfg domain.MatchConfig,
	accounts ReconciliationAccounts,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		invoiceRepo: invoiceRepo,
		bankTxRepo:  bankTxRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		numbering:   numbering,
		idGen:       idGen,
		matchCfg:    matchCfg,
		accounts:    accounts,
	}
}

// GenerateCandidates runs one matching pass over open invoices and
// unreconciled transactions. Pure read path: safe to call repeatedly,
// identical inputs produce identical ordered output.
func (uc *ReconciliationUseCase) GenerateCandidates(ctx context.Context) (domain.MatchRun, error) {
	invoices, err := uc.invoiceRepo.ListOutstanding(ctx)
	if err != nil {
		return domain.MatchRun{}, err
	}

	transactions, err := uc.bankTxRepo.ListUnreconciled(ctx)
	if err != nil {
		return domain.MatchRun{}, err
	}

	return domain.GenerateCandidates(invoices, transactions, uc.matchCfg, time.Now().UTC()), nil
}

// CommitInput identifies the candidate being committed.
type CommitInput struct {
	InvoiceID     string
	TransactionID string
	MatchScore    decimal.Decimal
	Auto          bool
}

// CommitResult reports the three effects of a committed reconciliation.
type CommitResult struct {
	InvoiceUpdated     bool
	TransactionUpdated bool
	EntryPosted        bool
	Entry              *domain.LedgerEntry
}

// CommitReconciliation applies an accepted candidate as a single logical
// unit. Both sides are re-validated under lock first: a candidate consumed
// by a concurrent commit fails with ErrAlreadyReconciled and the caller
// should re-run candidate generation.
func (uc *ReconciliationUseCase) CommitReconciliation(ctx context.Context, input CommitInput) (*CommitResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	invoice, err := uc.invoiceRepo.GetByIDForUpdate(ctx, tx, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	if !invoice.Matchable() {
		return nil, domain.ErrAlreadyReconciled
	}

	if invoice.Amount.IsZero() {
		return nil, domain.ErrDegenerateAmount
	}

	bankTx, err := uc.bankTxRepo.GetByIDForUpdate(ctx, tx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	if bankTx.Reconciled {
		return nil, domain.ErrAlreadyReconciled
	}

	if bankTx.Amount.IsZero() {
		return nil, domain.ErrDegenerateAmount
	}

	entry, err := uc.buildPaymentEntry(invoice, bankTx)
	if err != nil {
		return nil, err
	}

	n, err := uc.numbering.NextNumber(ctx, tx, entry.FiscalYear)
	if err != nil {
		return nil, err
	}

	if err := entry.Post(n); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if err := uc.invoiceRepo.MarkPaid(ctx, tx, invoice.ID, bankTx.ID, now); err != nil {
		return nil, err
	}

	if err := uc.bankTxRepo.MarkReconciled(ctx, tx, bankTx.ID, entry.ID, now); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   invoice.ID,
		AggregateType: domain.AggregateTypeReconciliation,
		EventType:     domain.EventTypeReconciliationCommitted,
		Payload: map[string]any{
			"invoice_id":     invoice.ID,
			"transaction_id": bankTx.ID,
			"entry_id":       entry.ID,
			"match_score":    input.MatchScore.String(),
			"auto":           input.Auto,
		},
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		Action:       string(domain.AuditActionReconciliationCommit),
		ResourceType: domain.AggregateTypeReconciliation,
		ResourceID:   invoice.ID,
		AfterState: domain.JSON{
			"transaction_id": bankTx.ID,
			"entry_id":       entry.ID,
			"match_score":    input.MatchScore.String(),
			"auto":           input.Auto,
		},
		Status:    string(domain.AuditStatusSuccess),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &CommitResult{
		InvoiceUpdated:     true,
		TransactionUpdated: true,
		EntryPosted:        true,
		Entry:              entry,
	}, nil
}

// AutoReconcileResult summarizes one automatic reconciliation batch.
type AutoReconcileResult struct {
	Committed []domain.Candidate
	Queued    []domain.Candidate
	Skipped   []domain.Candidate
	RunAt     time.Time
}

// AutoReconcile generates candidates and commits every pairing at or above
// the auto-commit threshold, first match per invoice and transaction wins.
// Candidates below the threshold are returned for manual review. A pairing
// consumed concurrently is skipped, not fatal.
func (uc *ReconciliationUseCase) AutoReconcile(ctx context.Context) (*AutoReconcileResult, error) {
	run, err := uc.GenerateCandidates(ctx)
	if err != nil {
		return nil, err
	}

	result := &AutoReconcileResult{RunAt: time.Now().UTC()}

	usedInvoices := make(map[string]bool)
	usedTransactions := make(map[string]bool)

	for _, candidate := range run.Candidates {
		if usedInvoices[candidate.InvoiceID] || usedTransactions[candidate.TransactionID] {
			continue
		}

		if !uc.matchCfg.CanAutoReconcile(candidate) {
			result.Queued = append(result.Queued, candidate)
			continue
		}

		_, err := uc.CommitReconciliation(ctx, CommitInput{
			InvoiceID:     candidate.InvoiceID,
			TransactionID: candidate.TransactionID,
			MatchScore:    candidate.MatchScore,
			Auto:          true,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyReconciled) {
				result.Skipped = append(result.Skipped, candidate)
				continue
			}

			return nil, fmt.Errorf("failed to commit candidate %s/%s: %w", candidate.InvoiceID, candidate.TransactionID, err)
		}

		usedInvoices[candidate.InvoiceID] = true
		usedTransactions[candidate.TransactionID] = true
		result.Committed = append(result.Committed, candidate)
	}

	return result, nil
}

func (uc *ReconciliationUseCase) buildPaymentEntry(invoice *domain.Invoice, bankTx *domain.BankTransaction) (*domain.LedgerEntry, error) {
	ref := bankTx.ID

	entry, err := domain.NewEntry(
		uc.idGen.Generate(),
		bankTx.TransactionDate,
		fmt.Sprintf("Payment for invoice %s", invoice.ID),
		domain.EntryOriginAutomatic,
		&ref,
		&invoice.ID,
	)
	if err != nil {
		return nil, err
	}

	lines := []domain.LedgerLine{
		{
			ID:        uc.idGen.Generate(),
			EntryID:   entry.ID,
			AccountID: uc.accounts.BankAccountID,
			Side:      domain.SideDebit,
			Amount:    bankTx.Amount,
		},
		{
			ID:        uc.idGen.Generate(),
			EntryID:   entry.ID,
			AccountID: uc.accounts.ReceivableAccountID,
			Side:      domain.SideCredit,
			Amount:    bankTx.Amount,
		},
	}

	if err := entry.ReplaceLines(lines); err != nil {
		return nil, err
	}

	return entry, nil
}
