package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

// TrialBalanceRow carries one account's net balance on exactly one side.
type TrialBalanceRow struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	DebitBalance  decimal.Decimal `json:"debit_balance"`
	CreditBalance decimal.Decimal `json:"credit_balance"`
}

// TrialBalance is the ledger-wide debit=credit verification as of a date.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

// BuildTrialBalance nets every active, non-header account into a single
// debit or credit balance and sums both columns.
func BuildTrialBalance(asOf time.Time, balances []AccountBalance) TrialBalance {
	tb := TrialBalance{AsOf: asOf, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, acc := range balances {
		if acc.IsHeader || !acc.IsActive {
			continue
		}
		net := acc.Net()
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: acc.Code, Name: acc.Name, Type: string(acc.Type), DebitBalance: decimal.Zero, CreditBalance: decimal.Zero}
		onDebitSide := acc.NormalBalance == accounts.NormalBalanceDebit
		if net.IsNegative() {
			net = net.Neg()
			onDebitSide = !onDebitSide
		}
		if onDebitSide {
			row.DebitBalance = net
			tb.TotalDebit = tb.TotalDebit.Add(net)
		} else {
			row.CreditBalance = net
			tb.TotalCredit = tb.TotalCredit.Add(net)
		}
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.IsBalanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}
