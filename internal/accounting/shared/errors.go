package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrZeroAmount indicates a journal with no monetary effect.
	ErrZeroAmount = errors.New("accounting: journal total must be positive")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: journal requires at least two lines")
	// ErrNegativeAmount indicates a negative debit or credit.
	ErrNegativeAmount = errors.New("accounting: debit and credit must not be negative")
	// ErrAccountNotFound indicates a missing chart of accounts node.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrAccountInactive indicates a posting against a deactivated account.
	ErrAccountInactive = errors.New("accounting: account is inactive")
	// ErrHeaderAccount indicates a posting against a header account. Headers
	// group the chart and never carry balances of their own.
	ErrHeaderAccount = errors.New("accounting: cannot post to a header account")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("accounting: journal entry not found")
	// ErrAlreadyReversed indicates the entry was reversed before.
	ErrAlreadyReversed = errors.New("accounting: journal entry already reversed")
	// ErrRoleNotMapped indicates a posting role without a chart account.
	ErrRoleNotMapped = errors.New("accounting: posting role has no account mapping")
)
