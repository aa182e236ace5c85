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

const invoiceColumns = `id, amount, currency, due_date, issue_date, status`

// InvoiceRepository implements usecase.InvoiceRepository.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// ListOutstanding returns invoices still open for reconciliation.
func (r *InvoiceRepository) ListOutstanding(ctx context.Context) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status IN ('pending', 'overdue')
		ORDER BY issue_date, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}

		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	return scanInvoiceRow(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an invoice with a FOR UPDATE lock.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`

	return scanInvoiceRow(pgxFrom(tx).QueryRow(ctx, query, id))
}

// MarkPaid transitions an invoice to paid and records the settling
// transaction.
func (r *InvoiceRepository) MarkPaid(ctx context.Context, tx usecase.Transaction, id, transactionID string, paidAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = 'paid', paid_by_transaction_id = $2, paid_at = $3
		WHERE id = $1 AND status IN ('pending', 'overdue')
	`

	tag, err := pgxFrom(tx).Exec(ctx, query, id, transactionID, timeToPgTimestamptz(paidAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyReconciled
	}

	return nil
}

func scanInvoice(rows pgx.Rows) (*domain.Invoice, error) {
	return scanInvoiceRow(rows)
}

func scanInvoiceRow(row pgx.Row) (*domain.Invoice, error) {
	var (
		invoice  domain.Invoice
		amount   pgtype.Numeric
		currency string
		dueDate  pgtype.Timestamptz
		status   string
	)

	err := row.Scan(
		&invoice.ID,
		&amount,
		&currency,
		&dueDate,
		&invoice.IssueDate,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}

		return nil, err
	}

	invoice.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}
	invoice.DueDate = pgTimestamptzToPtr(dueDate)
	invoice.Status = domain.InvoiceStatus(status)

	return &invoice, nil
}
