package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
)

// PostingLineInput describes a journal line for a posting request. The
// account is addressed through a resolved Ref, by id or by code.
type PostingLineInput struct {
	Account  accounts.Ref
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	MemberID *int64
	LoanID   *int64
	Memo     string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date        time.Time
	Description string
	Reference   string
	SourceType  string
	SourceID    uuid.UUID
	PostedBy    int64
	Lines       []PostingLineInput
}

// Validate checks everything that can be checked without touching storage:
// line shape, non-negative amounts, balance, and a positive total.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return fmt.Errorf("accounting: entry date required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.Account.IsZero() {
			return fmt.Errorf("accounting: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d: %w", idx, shared.ErrNegativeAmount)
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return fmt.Errorf("accounting: line %d cannot be both debit and credit", idx)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Round(2).Equal(credit.Round(2)) {
		return shared.ErrUnbalanced
	}
	if !debit.IsPositive() {
		return shared.ErrZeroAmount
	}
	return nil
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID int64
	ActorID int64
	Memo    string
}
