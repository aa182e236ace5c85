package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MatchConfig holds the tolerance and threshold knobs for candidate
// generation. Thresholds live here, not as literals in the algorithm, so
// boundary behavior can be probed exactly in tests.
type MatchConfig struct {
	// AmountTolerancePercent is the relative amount gate (0.05 = 5%).
	AmountTolerancePercent decimal.Decimal
	// DateToleranceDays is the hard date gate in days.
	DateToleranceDays int
	// DateScoreWindowDays is the fixed denominator for the date score.
	// Deliberately wider than the date gate.
	DateScoreWindowDays int
	// MinScore is the minimum score for a pairing to surface at all.
	MinScore decimal.Decimal
	// AutoCommitScore is the score at or above which a candidate commits
	// without manual confirmation.
	AutoCommitScore decimal.Decimal
	// AmountWeight and DateWeight blend the two sub-scores.
	AmountWeight decimal.Decimal
	DateWeight   decimal.Decimal
}

// DefaultMatchConfig returns the production matching thresholds.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		AmountTolerancePercent: decimal.NewFromFloat(0.05),
		DateToleranceDays:      3,
		DateScoreWindowDays:    30,
		MinScore:               decimal.NewFromFloat(0.8),
		AutoCommitScore:        decimal.NewFromFloat(0.95),
		AmountWeight:           decimal.NewFromFloat(0.7),
		DateWeight:             decimal.NewFromFloat(0.3),
	}
}

// Validate checks the configuration is internally consistent.
func (c MatchConfig) Validate() error {
	if c.AmountTolerancePercent.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerancePercent)
	}

	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}

	if c.DateScoreWindowDays <= 0 {
		return fmt.Errorf("date score window must be positive: %d", c.DateScoreWindowDays)
	}

	one := decimal.NewFromInt(1)
	for _, s := range []decimal.Decimal{c.MinScore, c.AutoCommitScore} {
		if s.IsNegative() || s.GreaterThan(one) {
			return fmt.Errorf("score threshold must be in [0,1]: %s", s)
		}
	}

	if !c.AmountWeight.Add(c.DateWeight).Equal(one) {
		return fmt.Errorf("score weights must sum to 1: %s + %s", c.AmountWeight, c.DateWeight)
	}

	return nil
}

// CanAutoReconcile reports whether a candidate is confident enough to
// commit without manual confirmation. Pure predicate, no side effects.
func (c MatchConfig) CanAutoReconcile(candidate Candidate) bool {
	return candidate.MatchScore.GreaterThanOrEqual(c.AutoCommitScore)
}

// Candidate is a scored invoice/transaction pairing. Candidates are
// ephemeral: generated per run, persisted only when promoted to a commit.
type Candidate struct {
	InvoiceID     string
	TransactionID string
	MatchScore    decimal.Decimal
	Reason        string
	CreatedAt     time.Time
}

// MatchRun is the outcome of one candidate generation pass. Degenerate
// inputs (zero amounts) are reported, not fatal: the run continues over the
// remaining pairs.
type MatchRun struct {
	Candidates               []Candidate
	DegenerateInvoiceIDs     []string
	DegenerateTransactionIDs []string
}

// GenerateCandidates pairs outstanding invoices against unreconciled bank
// transactions. Deterministic: the same inputs produce the same ordered
// output. O(n*m) over the two sets, which is fine at back-office batch sizes.
func GenerateCandidates(invoices []*Invoice, transactions []*BankTransaction, cfg MatchConfig, now time.Time) MatchRun {
	run := MatchRun{}

	degenerateTx := make(map[string]bool)
	for _, tx := range transactions {
		if !tx.Reconciled && tx.Amount.IsZero() {
			degenerateTx[tx.ID] = true
			run.DegenerateTransactionIDs = append(run.DegenerateTransactionIDs, tx.ID)
		}
	}

	txDates := make(map[string]time.Time, len(transactions))

	for _, invoice := range invoices {
		if !invoice.Matchable() {
			continue
		}

		if invoice.Amount.IsZero() {
			run.DegenerateInvoiceIDs = append(run.DegenerateInvoiceIDs, invoice.ID)
			continue
		}

		for _, tx := range transactions {
			if tx.Reconciled || degenerateTx[tx.ID] {
				continue
			}

			candidate, ok := scorePair(invoice, tx, cfg, now)
			if !ok {
				continue
			}

			txDates[tx.ID] = tx.TransactionDate
			run.Candidates = append(run.Candidates, candidate)
		}
	}

	sort.SliceStable(run.Candidates, func(i, j int) bool {
		a, b := run.Candidates[i], run.Candidates[j]

		if !a.MatchScore.Equal(b.MatchScore) {
			return a.MatchScore.GreaterThan(b.MatchScore)
		}

		da, db := txDates[a.TransactionID], txDates[b.TransactionID]
		if !da.Equal(db) {
			return da.Before(db)
		}

		return a.InvoiceID < b.InvoiceID
	})

	return run
}

func scorePair(invoice *Invoice, tx *BankTransaction, cfg MatchConfig, now time.Time) (Candidate, bool) {
	if invoice.Amount.Currency != tx.Amount.Currency {
		return Candidate{}, false
	}

	invoiceAmount := invoice.Amount.Amount.Abs()
	diff := invoice.Amount.Amount.Sub(tx.Amount.Amount).Abs()

	tolerance := invoiceAmount.Mul(cfg.AmountTolerancePercent)
	if diff.GreaterThan(tolerance) {
		return Candidate{}, false
	}

	days := daysApart(invoice.AnchorDate(), tx.TransactionDate)
	if days > cfg.DateToleranceDays {
		return Candidate{}, false
	}

	amountScore := decimal.NewFromInt(1).Sub(diff.Div(invoiceAmount))

	dateScore := decimal.NewFromInt(1).Sub(
		decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(cfg.DateScoreWindowDays))))
	if dateScore.IsNegative() {
		dateScore = decimal.Zero
	}

	score := cfg.AmountWeight.Mul(amountScore).Add(cfg.DateWeight.Mul(dateScore))
	if score.LessThan(cfg.MinScore) {
		return Candidate{}, false
	}

	return Candidate{
		InvoiceID:     invoice.ID,
		TransactionID: tx.ID,
		MatchScore:    score,
		Reason:        fmt.Sprintf("amount diff %s %s, %d days apart", diff, invoice.Amount.Currency, days),
		CreatedAt:     now,
	}, true
}

// daysApart returns the absolute calendar-day difference, ignoring the
// time-of-day component.
func daysApart(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		days = -days
	}

	return days
}
