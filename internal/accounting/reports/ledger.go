package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

// AccountLedgerLine is one movement with a running balance.
type AccountLedgerLine struct {
	EntryNumber int64           `json:"entry_number"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountLedger is the per-account statement: an opening balance followed by
// chronological movements with a running balance.
type AccountLedger struct {
	AccountID      int64               `json:"account_id"`
	Code           string              `json:"code"`
	Name           string              `json:"name"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
	Lines          []AccountLedgerLine `json:"lines"`
}

// BuildAccountLedger computes the running balance for an account. The
// opening balance is the signed net of all postings before the range, on the
// account's normal side.
func BuildAccountLedger(acc accounts.Account, opening decimal.Decimal, postings []PostingRow) AccountLedger {
	ledger := AccountLedger{
		AccountID:      acc.ID,
		Code:           acc.Code,
		Name:           acc.Name,
		OpeningBalance: opening,
		ClosingBalance: opening,
	}
	running := opening
	for _, row := range postings {
		delta := row.Debit.Sub(row.Credit)
		if acc.NormalBalance == accounts.NormalBalanceCredit {
			delta = row.Credit.Sub(row.Debit)
		}
		running = running.Add(delta)
		ledger.Lines = append(ledger.Lines, AccountLedgerLine{
			EntryNumber: row.EntryNumber,
			Date:        row.Date,
			Description: row.Description,
			Reference:   row.Reference,
			Debit:       row.Debit,
			Credit:      row.Credit,
			Balance:     running,
		})
	}
	ledger.ClosingBalance = running
	return ledger
}
