package accounts

// SeedAccount describes one default chart of accounts node.
type SeedAccount struct {
	Code       string
	Name       string
	Type       AccountType
	ParentCode string
	IsHeader   bool
	IsSystem   bool
}

// DefaultChart is the SACCO chart seeded into a fresh database. Seeding is
// idempotent: codes already present are left untouched.
var DefaultChart = []SeedAccount{
	{Code: "1", Name: "Assets", Type: AccountTypeAsset, IsHeader: true, IsSystem: true},
	{Code: "1000", Name: "Cash at Hand", Type: AccountTypeAsset, ParentCode: "1", IsSystem: true},
	{Code: "1010", Name: "Mobile Money Clearing", Type: AccountTypeAsset, ParentCode: "1", IsSystem: true},
	{Code: "1100", Name: "Bank Accounts", Type: AccountTypeAsset, ParentCode: "1"},
	{Code: "1200", Name: "Loans Receivable", Type: AccountTypeAsset, ParentCode: "1", IsSystem: true},
	{Code: "1210", Name: "Interest Receivable", Type: AccountTypeAsset, ParentCode: "1"},

	{Code: "2", Name: "Liabilities", Type: AccountTypeLiability, IsHeader: true, IsSystem: true},
	{Code: "2000", Name: "Member Deposits", Type: AccountTypeLiability, ParentCode: "2", IsSystem: true},
	{Code: "2100", Name: "Insurance Premiums Payable", Type: AccountTypeLiability, ParentCode: "2", IsSystem: true},
	{Code: "2200", Name: "Excise Duty Payable", Type: AccountTypeLiability, ParentCode: "2", IsSystem: true},

	{Code: "3", Name: "Equity", Type: AccountTypeEquity, IsHeader: true, IsSystem: true},
	{Code: "3000", Name: "Share Capital", Type: AccountTypeEquity, ParentCode: "3", IsSystem: true},
	{Code: "3100", Name: "Retained Earnings", Type: AccountTypeEquity, ParentCode: "3", IsSystem: true},

	{Code: "4", Name: "Income", Type: AccountTypeIncome, IsHeader: true, IsSystem: true},
	{Code: "4000", Name: "Interest on Loans", Type: AccountTypeIncome, ParentCode: "4", IsSystem: true},
	{Code: "4100", Name: "Loan Fees and Charges", Type: AccountTypeIncome, ParentCode: "4", IsSystem: true},
	{Code: "4200", Name: "Penalty Income", Type: AccountTypeIncome, ParentCode: "4", IsSystem: true},

	{Code: "5", Name: "Expenses", Type: AccountTypeExpense, IsHeader: true, IsSystem: true},
	{Code: "5000", Name: "Operating Expenses", Type: AccountTypeExpense, ParentCode: "5"},
	{Code: "5100", Name: "Provision for Loan Losses", Type: AccountTypeExpense, ParentCode: "5"},
}
