package domain

import "errors"

var (
	// Money errors
	ErrCurrencyMismatch = errors.New("cannot combine amounts in different currencies")
	ErrEmptyCurrency    = errors.New("currency code is empty")
	ErrInvalidAmount    = errors.New("amount must be positive")

	// Entry errors
	ErrInvalidDescription = errors.New("entry description is blank")
	ErrEntryAlreadyPosted = errors.New("entry is posted and its lines are frozen")
	ErrForeignLine        = errors.New("line belongs to a different entry")
	ErrUnbalanced         = errors.New("entry debits and credits do not balance")
	ErrAlreadyPosted      = errors.New("entry is already posted")
	ErrNotPosted          = errors.New("entry is not posted")
	ErrAlreadyReversed    = errors.New("entry is already reversed")
	ErrDuplicateNumber    = errors.New("entry number is already assigned")
	ErrInvalidNumber      = errors.New("entry number must be positive")
	ErrNumberConflict     = errors.New("entry number conflicts with previously assigned number")
	ErrImmutableEntry     = errors.New("automatic posted entries cannot be edited")
	ErrEntryNotFound      = errors.New("entry not found")

	// Numbering errors
	ErrNumberingUnavailable = errors.New("entry numbering is unavailable")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")
	ErrDuplicateCode   = errors.New("account code already exists")

	// Reconciliation errors
	ErrDegenerateAmount    = errors.New("zero amount cannot be matched")
	ErrAlreadyReconciled   = errors.New("invoice or transaction was reconciled concurrently")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrTransactionNotFound = errors.New("bank transaction not found")
)
