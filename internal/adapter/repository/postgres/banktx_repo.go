package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
)

const bankTxColumns = `id, amount, currency, transaction_date, reconciled`

// BankTransactionRepository implements usecase.BankTransactionRepository.
type BankTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewBankTransactionRepository creates a new BankTransactionRepository.
func NewBankTransactionRepository(pool *pgxpool.Pool) *BankTransactionRepository {
	return &BankTransactionRepository{pool: pool}
}

// ListUnreconciled returns bank transactions not yet matched.
func (r *BankTransactionRepository) ListUnreconciled(ctx context.Context) ([]*domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTxColumns + `
		FROM bank_transactions
		WHERE NOT reconciled
		ORDER BY transaction_date, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.BankTransaction
	for rows.Next() {
		tx, err := scanBankTransaction(rows)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// GetByID retrieves a bank transaction by ID.
func (r *BankTransactionRepository) GetByID(ctx context.Context, id string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTxColumns + ` FROM bank_transactions WHERE id = $1`

	return scanBankTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a bank transaction with a FOR UPDATE lock.
func (r *BankTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTxColumns + ` FROM bank_transactions WHERE id = $1 FOR UPDATE`

	return scanBankTransaction(pgxFrom(tx).QueryRow(ctx, query, id))
}

// MarkReconciled flags the transaction and links the entry that settled it.
func (r *BankTransactionRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, id, entryID string, reconciledAt time.Time) error {
	query := `
		UPDATE bank_transactions
		SET reconciled = true, entry_id = $2, reconciled_at = $3
		WHERE id = $1 AND NOT reconciled
	`

	tag, err := pgxFrom(tx).Exec(ctx, query, id, entryID, timeToPgTimestamptz(reconciledAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReconciled
	}

	return nil
}

func scanBankTransaction(row pgx.Row) (*domain.BankTransaction, error) {
	var (
		tx       domain.BankTransaction
		amount   pgtype.Numeric
		currency string
	)

	err := row.Scan(
		&tx.ID,
		&amount,
		&currency,
		&tx.TransactionDate,
		&tx.Reconciled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	tx.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}

	return &tx, nil
}
