package accounts

// Role names a posting destination used by the adapters that translate
// business events into journal entries. Roles are resolved against the chart
// once at startup instead of scattering code literals across call sites.
type Role string

const (
	RoleCash             Role = "CASH"
	RoleMobileClearing   Role = "MOBILE_CLEARING"
	RoleLoansReceivable  Role = "LOANS_RECEIVABLE"
	RoleMemberDeposits   Role = "MEMBER_DEPOSITS"
	RoleShareCapital     Role = "SHARE_CAPITAL"
	RoleInterestIncome   Role = "INTEREST_INCOME"
	RoleFeeIncome        Role = "FEE_INCOME"
	RolePenaltyIncome    Role = "PENALTY_INCOME"
	RoleInsurancePayable Role = "INSURANCE_PAYABLE"
	RoleExcisePayable    Role = "EXCISE_PAYABLE"
)

// DefaultRoleCodes maps every posting role to its default chart code.
var DefaultRoleCodes = map[Role]string{
	RoleCash:             "1000",
	RoleMobileClearing:   "1010",
	RoleLoansReceivable:  "1200",
	RoleMemberDeposits:   "2000",
	RoleShareCapital:     "3000",
	RoleInterestIncome:   "4000",
	RoleFeeIncome:        "4100",
	RolePenaltyIncome:    "4200",
	RoleInsurancePayable: "2100",
	RoleExcisePayable:    "2200",
}
