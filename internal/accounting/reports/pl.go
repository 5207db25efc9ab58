package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

// IncomeStatementRow summarises one income or expense account over a range.
type IncomeStatementRow struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string               `json:"label"`
	Accounts []IncomeStatementRow `json:"accounts"`
	Total    decimal.Decimal      `json:"total"`
}

// IncomeStatement is the structured profit and loss output.
type IncomeStatement struct {
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	Income    IncomeStatementSection `json:"income"`
	Expenses  IncomeStatementSection `json:"expenses"`
	NetIncome decimal.Decimal        `json:"net_income"`
}

// BuildIncomeStatement nets income accounts as credit-debit and expense
// accounts as debit-credit over the range.
func BuildIncomeStatement(start, end time.Time, balances []AccountBalance) IncomeStatement {
	income := IncomeStatementSection{Label: "Income", Total: decimal.Zero}
	expenses := IncomeStatementSection{Label: "Expenses", Total: decimal.Zero}

	for _, acc := range balances {
		if acc.IsHeader {
			continue
		}
		switch acc.Type {
		case accounts.AccountTypeIncome:
			amount := acc.Credit.Sub(acc.Debit)
			income.Accounts = append(income.Accounts, IncomeStatementRow{Code: acc.Code, Name: acc.Name, Amount: amount})
			income.Total = income.Total.Add(amount)
		case accounts.AccountTypeExpense:
			amount := acc.Debit.Sub(acc.Credit)
			expenses.Accounts = append(expenses.Accounts, IncomeStatementRow{Code: acc.Code, Name: acc.Name, Amount: amount})
			expenses.Total = expenses.Total.Add(amount)
		}
	}

	sort.Slice(income.Accounts, func(i, j int) bool { return income.Accounts[i].Code < income.Accounts[j].Code })
	sort.Slice(expenses.Accounts, func(i, j int) bool { return expenses.Accounts[i].Code < expenses.Accounts[j].Code })

	return IncomeStatement{
		Start:     start,
		End:       end,
		Income:    income,
		Expenses:  expenses,
		NetIncome: income.Total.Sub(expenses.Total),
	}
}
