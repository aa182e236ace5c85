package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger/internal/domain"
)

// EntryRepository defines data access for ledger entries and their lines.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	CreateTx(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ReplaceLines(ctx context.Context, tx Transaction, entryID string, lines []domain.LedgerLine) error
	ListByFiscalYear(ctx context.Context, fiscalYear, limit, offset int) ([]*domain.LedgerEntry, error)
}

// LedgerRepository defines ledger-wide queries.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context, fiscalYear int) (totalDebits, totalCredits decimal.Decimal, err error)
}

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

// InvoiceRepository is the capability interface onto the invoice subsystem.
// The matcher reads open invoices and requests the Paid transition; it never
// owns invoice state.
type InvoiceRepository interface {
	ListOutstanding(ctx context.Context) ([]*domain.Invoice, error)
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, tx Transaction, id, transactionID string, paidAt time.Time) error
}

// BankTransactionRepository is the capability interface onto the bank feed.
type BankTransactionRepository interface {
	ListUnreconciled(ctx context.Context) ([]*domain.BankTransaction, error)
	GetByID(ctx context.Context, id string) (*domain.BankTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.BankTransaction, error)
	MarkReconciled(ctx context.Context, tx Transaction, id, entryID string, reconciledAt time.Time) error
}

// SequenceRepository increments the per-fiscal-year entry counter.
type SequenceRepository interface {
	// NextNumber atomically increments and returns the counter for the year.
	NextNumber(ctx context.Context, tx Transaction, fiscalYear int) (int, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
