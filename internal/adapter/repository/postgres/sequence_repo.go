package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbooks/ledger/internal/usecase"
)

// SequenceRepository implements usecase.SequenceRepository on a per-year
// counter row. The UPDATE takes a row lock, so two postings in the same year
// can never read the same number even across processes.
type SequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{pool: pool}
}

// NextNumber atomically increments and returns the counter for the fiscal
// year, creating the row on first use. Runs inside the caller's transaction
// when one is given, so a rolled-back posting leaves a gap, never a duplicate.
func (r *SequenceRepository) NextNumber(ctx context.Context, tx usecase.Transaction, fiscalYear int) (int, error) {
	query := `
		INSERT INTO entry_sequences (fiscal_year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (fiscal_year)
		DO UPDATE SET last_number = entry_sequences.last_number + 1
		RETURNING last_number
	`

	var q querier = r.pool
	if tx != nil {
		q = pgxFrom(tx)
	}

	var n int
	if err := q.QueryRow(ctx, query, fiscalYear).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}
