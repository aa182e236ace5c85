package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finbooks/ledger/internal/domain"
	"github.com/finbooks/ledger/internal/usecase"
)

const entryColumns = `id, entry_number, fiscal_year, entry_date, description, notes,
	external_reference, source_invoice_id, origin, status, reversed_by, created_at, updated_at`

const lineColumns = `id, entry_id, account_id, side, amount, currency, description`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create persists a new entry with its lines.
func (r *EntryRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := insertLines(ctx, tx, entry.Lines); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateTx persists a new entry with its lines inside the caller's transaction.
func (r *EntryRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := pgxFrom(tx)

	if err := insertEntry(ctx, pgxTx, entry); err != nil {
		return err
	}

	return insertLines(ctx, pgxTx, entry.Lines)
}

// GetByID retrieves an entry with its lines.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return getEntry(ctx, r.pool, id, false)
}

// GetByIDForUpdate retrieves an entry with a FOR UPDATE lock on the entry row.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return getEntry(ctx, pgxFrom(tx), id, true)
}

// Update persists the mutable entry fields. Lines are managed separately.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		UPDATE entries
		SET entry_number = $2, fiscal_year = $3, entry_date = $4, description = $5,
		    notes = $6, status = $7, reversed_by = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := pgxFrom(tx).Exec(ctx, query,
		entry.ID,
		ptrToPgInt4(entry.EntryNumber),
		entry.FiscalYear,
		entry.EntryDate,
		entry.Description,
		entry.Notes,
		string(entry.Status),
		ptrToPgText(entry.ReversedBy),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ReplaceLines swaps the full line set of an entry within the caller's
// transaction. The UPDATE carries a draft guard so a racing posting that
// commits after the caller's read cannot have its lines rewritten.
func (r *EntryRepository) ReplaceLines(ctx context.Context, tx usecase.Transaction, entryID string, lines []domain.LedgerLine) error {
	q := pgxFrom(tx)

	tag, err := q.Exec(ctx, `UPDATE entries SET updated_at = now() WHERE id = $1 AND status = $2`,
		entryID, string(domain.EntryStatusDraft))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryAlreadyPosted
	}

	if _, err := q.Exec(ctx, `DELETE FROM ledger_lines WHERE entry_id = $1`, entryID); err != nil {
		return err
	}

	return insertLines(ctx, q, lines)
}

// ListByFiscalYear lists entries of a fiscal year ordered by entry number,
// drafts last.
func (r *EntryRepository) ListByFiscalYear(ctx context.Context, fiscalYear, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE fiscal_year = $1
		ORDER BY entry_number NULLS LAST, created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, fiscalYear, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	ids := make([]string, 0)

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return entries, nil
	}

	lines, err := loadLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		entry.Lines = lines[entry.ID]
	}

	return entries, nil
}

func insertEntry(ctx context.Context, q querier, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		entry.ID,
		ptrToPgInt4(entry.EntryNumber),
		entry.FiscalYear,
		entry.EntryDate,
		entry.Description,
		entry.Notes,
		ptrToPgText(entry.ExternalReference),
		ptrToPgText(entry.SourceInvoiceID),
		string(entry.Origin),
		string(entry.Status),
		ptrToPgText(entry.ReversedBy),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)

	return err
}

func insertLines(ctx context.Context, q querier, lines []domain.LedgerLine) error {
	query := `
		INSERT INTO ledger_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, line := range lines {
		_, err := q.Exec(ctx, query,
			line.ID,
			line.EntryID,
			line.AccountID,
			string(line.Side),
			decimalToNumeric(line.Amount.Amount),
			line.Amount.Currency,
			line.Description,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func getEntry(ctx context.Context, q querier, id string, forUpdate bool) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	entry, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	lines, err := loadLines(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}

	entry.Lines = lines[id]

	return entry, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry       domain.LedgerEntry
		entryNumber pgtype.Int4
		notes       pgtype.Text
		externalRef pgtype.Text
		invoiceID   pgtype.Text
		reversedBy  pgtype.Text
		origin      string
		status      string
	)

	err := row.Scan(
		&entry.ID,
		&entryNumber,
		&entry.FiscalYear,
		&entry.EntryDate,
		&entry.Description,
		&notes,
		&externalRef,
		&invoiceID,
		&origin,
		&status,
		&reversedBy,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.EntryNumber = pgInt4ToPtr(entryNumber)
	entry.Notes = notes.String
	entry.ExternalReference = pgTextToPtr(externalRef)
	entry.SourceInvoiceID = pgTextToPtr(invoiceID)
	entry.ReversedBy = pgTextToPtr(reversedBy)
	entry.Origin = domain.EntryOrigin(origin)
	entry.Status = domain.EntryStatus(status)

	return &entry, nil
}

func loadLines(ctx context.Context, q querier, entryIDs []string) (map[string][]domain.LedgerLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM ledger_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, id
	`

	rows, err := q.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[string][]domain.LedgerLine)

	for rows.Next() {
		var (
			line     domain.LedgerLine
			side     string
			amount   pgtype.Numeric
			currency string
		)

		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &side, &amount, &currency, &line.Description); err != nil {
			return nil, err
		}

		line.Side = domain.LineSide(side)
		line.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}

		lines[line.EntryID] = append(lines[line.EntryID], line)
	}

	return lines, rows.Err()
}
