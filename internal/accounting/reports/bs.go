package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
)

// BalanceSheetRow summarises one account for a balance sheet section.
type BalanceSheetRow struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string            `json:"label"`
	Accounts []BalanceSheetRow `json:"accounts"`
	Total    decimal.Decimal   `json:"total"`
}

// BalanceSheet is the structured response for the balance sheet report.
// Retained earnings are injected from the income statement covering the
// year up to the report date.
type BalanceSheet struct {
	AsOf                      time.Time           `json:"as_of"`
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	RetainedEarnings          decimal.Decimal     `json:"retained_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal     `json:"total_liabilities_and_equity"`
}

// BuildBalanceSheet nets assets, liabilities, and equity as of the report
// date and appends retained earnings to equity.
func BuildBalanceSheet(asOf time.Time, balances []AccountBalance, retainedEarnings decimal.Decimal) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets", Total: decimal.Zero}
	liabilities := BalanceSheetSection{Label: "Liabilities", Total: decimal.Zero}
	equity := BalanceSheetSection{Label: "Equity", Total: decimal.Zero}

	for _, acc := range balances {
		if acc.IsHeader {
			continue
		}
		row := BalanceSheetRow{Code: acc.Code, Name: acc.Name, Balance: acc.Net()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total = assets.Total.Add(row.Balance)
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total = liabilities.Total.Add(row.Balance)
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total = equity.Total.Add(row.Balance)
		}
	}

	equity.Accounts = append(equity.Accounts, BalanceSheetRow{Code: "", Name: "Retained Earnings (current period)", Balance: retainedEarnings})
	equity.Total = equity.Total.Add(retainedEarnings)

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })

	return BalanceSheet{
		AsOf:                      asOf,
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		RetainedEarnings:          retainedEarnings,
		TotalLiabilitiesAndEquity: liabilities.Total.Add(equity.Total),
	}
}
