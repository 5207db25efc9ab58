package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account's balance increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// NormalBalanceFor maps an account type to its normal balance side.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// Account models a chart of accounts node. CurrentBalance caches the signed
// sum of all posted lines against the account.
type Account struct {
	ID             int64
	Code           string
	Name           string
	Type           AccountType
	NormalBalance  NormalBalance
	ParentID       *int64
	IsHeader       bool
	IsSystem       bool
	IsActive       bool
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Ref identifies an account by exactly one of id or code. Handlers resolve
// loose identifiers to a Ref once at the boundary.
type Ref struct {
	id   int64
	code string
}

// ByID builds a Ref addressing an account by primary key.
func ByID(id int64) Ref { return Ref{id: id} }

// ByCode builds a Ref addressing an account by chart code.
func ByCode(code string) Ref { return Ref{code: code} }

// ID returns the id part of the reference, zero when addressed by code.
func (r Ref) ID() int64 { return r.id }

// Code returns the code part of the reference, empty when addressed by id.
func (r Ref) Code() string { return r.code }

// IsZero reports whether the reference addresses nothing.
func (r Ref) IsZero() bool { return r.id == 0 && r.code == "" }
