package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

// AccountBalance models a ledger account with debit and credit totals
// aggregated over a reporting range.
type AccountBalance struct {
	AccountID     int64
	Code          string
	Name          string
	Type          accounts.AccountType
	NormalBalance accounts.NormalBalance
	IsHeader      bool
	IsActive      bool
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// Net returns the account balance on its normal side. A negative result
// means the account carries a balance on the opposite side.
func (a AccountBalance) Net() decimal.Decimal {
	if a.NormalBalance == accounts.NormalBalanceDebit {
		return a.Debit.Sub(a.Credit)
	}
	return a.Credit.Sub(a.Debit)
}

// PostingRow is one journal line against an account, used by the account
// ledger report.
type PostingRow struct {
	EntryID     int64
	EntryNumber int64
	Date        time.Time
	Description string
	Reference   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
