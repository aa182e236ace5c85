package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CheckConsistency sums debits and credits over all finalized entries of the
// fiscal year. Reversed entries still count: their lines were posted and
// their counter-entries balance them out.
func (r *LedgerRepository) CheckConsistency(ctx context.Context, fiscalYear int) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'debit'), 0),
			COALESCE(SUM(l.amount) FILTER (WHERE l.side = 'credit'), 0)
		FROM ledger_lines l
		JOIN entries e ON e.id = l.entry_id
		WHERE e.fiscal_year = $1 AND e.status IN ('posted', 'reversed')
	`

	var debits, credits pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, fiscalYear).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}
