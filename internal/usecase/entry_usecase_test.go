package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
	"github.com/finbooks/ledger/internal/usecase/mocks"
)

type entryFixture struct {
	txManager   *mocks.MockTransactionManager
	entryRepo   *mocks.MockEntryRepository
	ledgerRepo  *mocks.MockLedgerRepository
	accountRepo *mocks.MockAccountRepository
	outboxRepo  *mocks.MockOutboxRepository
	auditRepo   *mocks.MockAuditRepository
	seqRepo     *mocks.MockSequenceRepository
	uc          *usecase.EntryUseCase
}

func newEntryFixture() *entryFixture {
	f := &entryFixture{
		txManager:   mocks.NewMockTransactionManager(),
		entryRepo:   mocks.NewMockEntryRepository(),
		ledgerRepo:  mocks.NewMockLedgerRepository(),
		accountRepo: mocks.NewMockAccountRepository(),
		outboxRepo:  mocks.NewMockOutboxRepository(),
		auditRepo:   mocks.NewMockAuditRepository(),
		seqRepo:     mocks.NewMockSequenceRepository(),
	}

	f.uc = usecase.NewEntryUseCase(
		f.txManager,
		f.entryRepo,
		f.ledgerRepo,
		f.accountRepo,
		f.outboxRepo,
		f.auditRepo,
		usecase.NewNumberingAuthority(f.seqRepo),
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
	)

	return f
}

func (f *entryFixture) addAccount(t *testing.T, id, code string, accType domain.AccountType) {
	t.Helper()

	now := time.Now().UTC()
	if err := f.accountRepo.Create(context.Background(), &domain.Account{
		ID:        id,
		Code:      code,
		Name:      "account " + code,
		Type:      accType,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
}

func balancedInput(amount string) usecase.CreateEntryInput {
	return usecase.CreateEntryInput{
		EntryDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "Office supplies",
		Origin:      domain.EntryOriginManual,
		Lines: []usecase.LineInput{
			{AccountID: "acc-expense", Side: domain.SideDebit, Amount: decimal.RequireFromString(amount), Currency: "EUR"},
			{AccountID: "acc-bank", Side: domain.SideCredit, Amount: decimal.RequireFromString(amount), Currency: "EUR"},
		},
	}
}

func TestEntryUseCase_CreateDraft(t *testing.T) {
	t.Run("creates an unnumbered draft", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		entry, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if entry.Status != domain.EntryStatusDraft {
			t.Errorf("expected draft status, got %s", entry.Status)
		}
		if entry.EntryNumber != nil {
			t.Errorf("draft must not carry a number, got %d", *entry.EntryNumber)
		}
		if entry.FiscalYear != 2024 {
			t.Errorf("expected fiscal year 2024, got %d", entry.FiscalYear)
		}
		if len(entry.Lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(entry.Lines))
		}
	})

	t.Run("unbalanced lines are fine at draft time", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		input := balancedInput("100.00")
		input.Lines[1].Amount = decimal.RequireFromString("90.00")

		entry, err := f.uc.CreateDraft(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.IsBalanced() {
			t.Error("expected unbalanced draft")
		}
	})

	t.Run("rejects line against inactive account", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)
		if err := f.accountRepo.SetActive(context.Background(), "acc-bank", false, time.Now().UTC()); err != nil {
			t.Fatalf("failed to deactivate account: %v", err)
		}

		_, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if !errors.Is(err, domain.ErrAccountInactive) {
			t.Errorf("expected ErrAccountInactive, got %v", err)
		}
	})

	t.Run("rejects line against unknown account", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)

		_, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("rejects non-positive line amount", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		input := balancedInput("100.00")
		input.Lines[0].Amount = decimal.Zero

		_, err := f.uc.CreateDraft(context.Background(), input)
		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestEntryUseCase_ReplaceDraftLines(t *testing.T) {
	t.Run("swaps lines of a draft in one transaction", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated, err := f.uc.ReplaceDraftLines(context.Background(), draft.ID, []usecase.LineInput{
			{AccountID: "acc-expense", Side: domain.SideDebit, Amount: decimal.RequireFromString("75.00"), Currency: "EUR"},
			{AccountID: "acc-bank", Side: domain.SideCredit, Amount: decimal.RequireFromString("75.00"), Currency: "EUR"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(updated.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(updated.Lines))
		}
		if !updated.Lines[0].Amount.Amount.Equal(decimal.RequireFromString("75.00")) {
			t.Errorf("expected replaced amount 75.00, got %s", updated.Lines[0].Amount.Amount)
		}
		if len(f.txManager.Transactions) != 1 || !f.txManager.Transactions[0].Committed {
			t.Error("expected a committed transaction")
		}
	})

	t.Run("replacing lines of a posted entry fails", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.uc.PostEntry(context.Background(), draft.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.uc.ReplaceDraftLines(context.Background(), draft.ID, balancedInput("50.00").Lines)
		if !errors.Is(err, domain.ErrEntryAlreadyPosted) {
			t.Errorf("expected ErrEntryAlreadyPosted, got %v", err)
		}
	})

	t.Run("storage guard rejects a stale draft read that lost a posting race", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		posted, err := f.uc.PostEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Hand back a copy still showing Draft, as a lockless read taken
		// just before the posting committed would.
		f.entryRepo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
			stored, err := f.entryRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			stale := *stored
			stale.Status = domain.EntryStatusDraft
			stale.EntryNumber = nil
			return &stale, nil
		}

		_, err = f.uc.ReplaceDraftLines(context.Background(), draft.ID, balancedInput("999.00").Lines)
		if !errors.Is(err, domain.ErrEntryAlreadyPosted) {
			t.Errorf("expected ErrEntryAlreadyPosted, got %v", err)
		}

		f.entryRepo.GetByIDForUpdateFunc = nil
		stored, err := f.uc.GetEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, line := range stored.Lines {
			if !line.Amount.Equal(posted.Lines[i].Amount) {
				t.Errorf("line %d: posted lines must be untouched", i)
			}
		}
	})
}

func TestEntryUseCase_PostEntry(t *testing.T) {
	t.Run("posts a balanced draft with the next number", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		posted, err := f.uc.PostEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if posted.Status != domain.EntryStatusPosted {
			t.Errorf("expected posted status, got %s", posted.Status)
		}
		if posted.EntryNumber == nil || *posted.EntryNumber != 1 {
			t.Errorf("expected entry number 1, got %v", posted.EntryNumber)
		}

		if len(f.outboxRepo.Events) != 1 {
			t.Fatalf("expected 1 outbox event, got %d", len(f.outboxRepo.Events))
		}
		if f.outboxRepo.Events[0].EventType != domain.EventTypeEntryPosted {
			t.Errorf("expected %s event, got %s", domain.EventTypeEntryPosted, f.outboxRepo.Events[0].EventType)
		}
		if len(f.auditRepo.Logs) != 1 {
			t.Errorf("expected 1 audit log, got %d", len(f.auditRepo.Logs))
		}
		if len(f.txManager.Transactions) != 1 || !f.txManager.Transactions[0].Committed {
			t.Error("expected a committed transaction")
		}
	})

	t.Run("numbers advance per posting within a year", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		for want := 1; want <= 3; want++ {
			draft, err := f.uc.CreateDraft(context.Background(), balancedInput("50.00"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			posted, err := f.uc.PostEntry(context.Background(), draft.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *posted.EntryNumber != want {
				t.Errorf("expected number %d, got %d", want, *posted.EntryNumber)
			}
		}
	})

	t.Run("unbalanced draft stays draft", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		input := balancedInput("100.00")
		input.Lines[1].Amount = decimal.RequireFromString("90.00")

		draft, err := f.uc.CreateDraft(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.uc.PostEntry(context.Background(), draft.ID)
		if !errors.Is(err, domain.ErrUnbalanced) {
			t.Errorf("expected ErrUnbalanced, got %v", err)
		}

		stored, err := f.uc.GetEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Status != domain.EntryStatusDraft {
			t.Errorf("expected entry to remain draft, got %s", stored.Status)
		}
		if stored.EntryNumber != nil {
			t.Errorf("expected entry to remain unnumbered, got %d", *stored.EntryNumber)
		}
		if len(f.outboxRepo.Events) != 0 {
			t.Errorf("expected no outbox events, got %d", len(f.outboxRepo.Events))
		}
	})

	t.Run("posting twice fails", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.uc.PostEntry(context.Background(), draft.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.uc.PostEntry(context.Background(), draft.ID)
		if !errors.Is(err, domain.ErrAlreadyPosted) {
			t.Errorf("expected ErrAlreadyPosted, got %v", err)
		}
	})

	t.Run("numbering failure aborts the posting", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.seqRepo.NextNumberFunc = func(ctx context.Context, tx usecase.Transaction, fiscalYear int) (int, error) {
			return 0, errors.New("counter down")
		}

		_, err = f.uc.PostEntry(context.Background(), draft.ID)
		if !errors.Is(err, domain.ErrNumberingUnavailable) {
			t.Errorf("expected ErrNumberingUnavailable, got %v", err)
		}

		stored, err := f.uc.GetEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Status != domain.EntryStatusDraft {
			t.Errorf("expected entry to remain draft, got %s", stored.Status)
		}
		for _, tx := range f.txManager.Transactions {
			if tx.Committed {
				t.Error("no transaction should have committed")
			}
		}
	})
}

func TestEntryUseCase_ReverseEntry(t *testing.T) {
	post := func(t *testing.T, f *entryFixture) *domain.LedgerEntry {
		t.Helper()

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("250.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		posted, err := f.uc.PostEntry(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		return posted
	}

	t.Run("creates a posted counter-entry and links the original", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		original := post(t, f)

		reversal, err := f.uc.ReverseEntry(context.Background(), original.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if reversal.Status != domain.EntryStatusPosted {
			t.Errorf("expected posted reversal, got %s", reversal.Status)
		}
		if reversal.EntryNumber == nil || *reversal.EntryNumber != 2 {
			t.Errorf("expected reversal number 2, got %v", reversal.EntryNumber)
		}
		if reversal.Origin != domain.EntryOriginAutomatic {
			t.Errorf("expected automatic origin, got %s", reversal.Origin)
		}

		if len(reversal.Lines) != len(original.Lines) {
			t.Fatalf("expected %d reversal lines, got %d", len(original.Lines), len(reversal.Lines))
		}
		for i, line := range reversal.Lines {
			orig := original.Lines[i]
			if line.AccountID != orig.AccountID {
				t.Errorf("line %d: expected account %s, got %s", i, orig.AccountID, line.AccountID)
			}
			if line.Side == orig.Side {
				t.Errorf("line %d: side must flip", i)
			}
			if !line.Amount.Equal(orig.Amount) {
				t.Errorf("line %d: amount must be preserved", i)
			}
		}

		stored, err := f.uc.GetEntry(context.Background(), original.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Status != domain.EntryStatusReversed {
			t.Errorf("expected original reversed, got %s", stored.Status)
		}
		if stored.ReversedBy == nil || *stored.ReversedBy != reversal.ID {
			t.Errorf("expected ReversedBy %s, got %v", reversal.ID, stored.ReversedBy)
		}
		if len(stored.Lines) != 2 {
			t.Errorf("original lines must be untouched, got %d", len(stored.Lines))
		}
	})

	t.Run("reversing a draft fails", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = f.uc.ReverseEntry(context.Background(), draft.ID)
		if !errors.Is(err, domain.ErrNotPosted) {
			t.Errorf("expected ErrNotPosted, got %v", err)
		}
	})

	t.Run("reversing twice fails", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		original := post(t, f)
		if _, err := f.uc.ReverseEntry(context.Background(), original.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := f.uc.ReverseEntry(context.Background(), original.ID)
		if !errors.Is(err, domain.ErrAlreadyReversed) {
			t.Errorf("expected ErrAlreadyReversed, got %v", err)
		}
	})
}

func TestEntryUseCase_UpdateNarrative(t *testing.T) {
	t.Run("edits draft narrative", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		draft, err := f.uc.CreateDraft(context.Background(), balancedInput("100.00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		desc := "Corrected description"
		newDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		updated, err := f.uc.UpdateNarrative(context.Background(), draft.ID, usecase.UpdateNarrativeInput{
			Description: &desc,
			EntryDate:   &newDate,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if updated.Description != desc {
			t.Errorf("expected description %q, got %q", desc, updated.Description)
		}
		if updated.FiscalYear != 2025 {
			t.Errorf("fiscal year must follow the date while draft, got %d", updated.FiscalYear)
		}
	})

	t.Run("posted automatic entry is immutable", func(t *testing.T) {
		f := newEntryFixture()
		f.addAccount(t, "acc-expense", "6000", domain.AccountTypeExpense)
		f.addAccount(t, "acc-bank", "1200", domain.AccountTypeAsset)

		input := balancedInput("100.00")
		input.Origin = domain.EntryOriginAutomatic

		draft, err := f.uc.CreateDraft(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.uc.PostEntry(context.Background(), draft.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		desc := "should not apply"
		_, err = f.uc.UpdateNarrative(context.Background(), draft.ID, usecase.UpdateNarrativeInput{Description: &desc})
		if !errors.Is(err, domain.ErrImmutableEntry) {
			t.Errorf("expected ErrImmutableEntry, got %v", err)
		}
	})
}

func TestEntryUseCase_CheckConsistency(t *testing.T) {
	tests := []struct {
		name    string
		debits  decimal.Decimal
		credits decimal.Decimal
		want    bool
	}{
		{"balanced ledger", decimal.RequireFromString("1500.00"), decimal.RequireFromString("1500.00"), true},
		{"unbalanced ledger", decimal.RequireFromString("1500.00"), decimal.RequireFromString("1499.99"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEntryFixture()
			f.ledgerRepo.CheckConsistencyFunc = func(ctx context.Context, fiscalYear int) (decimal.Decimal, decimal.Decimal, error) {
				return tt.debits, tt.credits, nil
			}

			ok, err := f.uc.CheckConsistency(context.Background(), 2024)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ok)
			}
		})
	}
}
