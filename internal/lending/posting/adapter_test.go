package posting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/journals"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
	"github.com/umoja-sacco/umoja-core/internal/lending/loans"
)

type fakeResolver struct {
	byRole map[accounts.Role]accounts.Account
}

func (f *fakeResolver) ResolveRole(_ context.Context, role accounts.Role) (accounts.Account, error) {
	acc, ok := f.byRole[role]
	if !ok {
		return accounts.Account{}, shared.ErrRoleNotMapped
	}
	return acc, nil
}

type fakeJournal struct {
	entries []journals.PostingInput
}

func (f *fakeJournal) PostEntry(_ context.Context, input journals.PostingInput) (journals.JournalEntry, error) {
	f.entries = append(f.entries, input)
	return journals.JournalEntry{ID: int64(len(f.entries)), Number: int64(len(f.entries))}, nil
}

var roleIDs = map[accounts.Role]int64{
	accounts.RoleCash:             1,
	accounts.RoleLoansReceivable:  2,
	accounts.RoleMemberDeposits:   3,
	accounts.RoleInterestIncome:   4,
	accounts.RoleFeeIncome:        5,
	accounts.RolePenaltyIncome:    6,
	accounts.RoleInsurancePayable: 7,
	accounts.RoleExcisePayable:    8,
}

func newTestAdapter() (*Adapter, *fakeJournal) {
	byRole := make(map[accounts.Role]accounts.Account, len(roleIDs))
	for role, id := range roleIDs {
		byRole[role] = accounts.Account{ID: id, Code: accounts.DefaultRoleCodes[role]}
	}
	journal := &fakeJournal{}
	adapter := NewAdapter(&fakeResolver{byRole: byRole}, journal)
	adapter.WithNow(func() time.Time {
		return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	})
	return adapter, journal
}

func amt(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func lineTotals(t *testing.T, input journals.PostingInput) (decimal.Decimal, decimal.Decimal) {
	t.Helper()
	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range input.Lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	return debits, credits
}

func creditOn(t *testing.T, input journals.PostingInput, role accounts.Role) decimal.Decimal {
	t.Helper()
	total := decimal.Zero
	for _, line := range input.Lines {
		if line.Account.ID() == roleIDs[role] {
			total = total.Add(line.Credit)
		}
	}
	return total
}

func TestPostDisbursementBalances(t *testing.T) {
	adapter, journal := newTestAdapter()
	disbursedAt := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	loan := loans.Loan{
		ID:            42,
		MemberID:      7,
		Reference:     uuid.New(),
		Principal:     amt("100000"),
		NetDisbursed:  amt("94600.00"),
		TotalInterest: amt("10000.00"),
		DisbursedAt:   &disbursedAt,
	}
	fees := amortization.FeeBreakdown{
		Processing: amt("3000.00"),
		Insurance:  amt("1000.00"),
		Appraisal:  amt("500.00"),
		Subtotal:   amt("4500.00"),
		Excise:     amt("900.00"),
		TotalFees:  amt("5400.00"),
	}

	require.NoError(t, adapter.PostDisbursement(context.Background(), loan, fees, 3))
	require.Len(t, journal.entries, 1)

	entry := journal.entries[0]
	require.Equal(t, "LOAN_DISBURSEMENT", entry.SourceType)
	require.Equal(t, loan.Reference, entry.SourceID)
	require.Equal(t, disbursedAt, entry.Date)
	require.Equal(t, int64(3), entry.PostedBy)

	debits, credits := lineTotals(t, entry)
	require.True(t, debits.Equal(credits), "disbursement entry must balance: %s vs %s", debits, credits)
	require.True(t, debits.Equal(amt("100000")))
	require.True(t, creditOn(t, entry, accounts.RoleFeeIncome).Equal(amt("3500.00")))
	require.True(t, creditOn(t, entry, accounts.RoleInsurancePayable).Equal(amt("1000.00")))
	require.True(t, creditOn(t, entry, accounts.RoleExcisePayable).Equal(amt("900.00")))
	require.True(t, creditOn(t, entry, accounts.RoleInterestIncome).IsZero())
}

func TestPostDisbursementUpfrontInterest(t *testing.T) {
	adapter, journal := newTestAdapter()
	loan := loans.Loan{
		ID:                      42,
		MemberID:                7,
		Reference:               uuid.New(),
		Principal:               amt("100000"),
		NetDisbursed:            amt("84600.00"),
		TotalInterest:           amt("10000.00"),
		UpfrontInterestDeducted: true,
	}
	fees := amortization.FeeBreakdown{
		Processing: amt("3000.00"),
		Insurance:  amt("1000.00"),
		Appraisal:  amt("500.00"),
		Excise:     amt("900.00"),
	}

	require.NoError(t, adapter.PostDisbursement(context.Background(), loan, fees, 3))
	require.Len(t, journal.entries, 1)

	entry := journal.entries[0]
	debits, credits := lineTotals(t, entry)
	require.True(t, debits.Equal(credits))
	require.True(t, creditOn(t, entry, accounts.RoleInterestIncome).Equal(amt("10000.00")))
	// No DisbursedAt on the loan, the adapter falls back to its clock.
	require.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), entry.Date)
}

func TestPostRepaymentBalances(t *testing.T) {
	adapter, journal := newTestAdapter()
	loan := loans.Loan{ID: 42, MemberID: 7, Reference: uuid.New()}
	result := loans.AllocationResult{
		PrincipalPaid: amt("4250.00"),
		InterestPaid:  amt("500.00"),
		PenaltyPaid:   amt("200.00"),
		InsurancePaid: amt("50.00"),
		AmountApplied: amt("5000.00"),
		Leftover:      amt("300.00"),
	}

	require.NoError(t, adapter.PostRepayment(context.Background(), loan, result, 3))
	require.Len(t, journal.entries, 1)

	entry := journal.entries[0]
	require.Equal(t, "LOAN_REPAYMENT", entry.SourceType)

	debits, credits := lineTotals(t, entry)
	require.True(t, debits.Equal(credits), "repayment entry must balance: %s vs %s", debits, credits)
	require.True(t, debits.Equal(amt("5300.00")))
	require.True(t, creditOn(t, entry, accounts.RolePenaltyIncome).Equal(amt("200.00")))
	require.True(t, creditOn(t, entry, accounts.RoleInterestIncome).Equal(amt("500.00")))
	require.True(t, creditOn(t, entry, accounts.RoleInsurancePayable).Equal(amt("50.00")))
	require.True(t, creditOn(t, entry, accounts.RoleLoansReceivable).Equal(amt("4250.00")))
	require.True(t, creditOn(t, entry, accounts.RoleMemberDeposits).Equal(amt("300.00")))
}

func TestPostRepaymentSkipsEmptyResult(t *testing.T) {
	adapter, journal := newTestAdapter()
	loan := loans.Loan{ID: 42, MemberID: 7, Reference: uuid.New()}

	require.NoError(t, adapter.PostRepayment(context.Background(), loan, loans.AllocationResult{
		PrincipalPaid: decimal.Zero,
		InterestPaid:  decimal.Zero,
		PenaltyPaid:   decimal.Zero,
		InsurancePaid: decimal.Zero,
		AmountApplied: decimal.Zero,
		Leftover:      decimal.Zero,
	}, 3))
	require.Empty(t, journal.entries)
}

func TestPostDeposit(t *testing.T) {
	adapter, journal := newTestAdapter()

	require.NoError(t, adapter.PostDeposit(context.Background(), 7, amt("2500"), "DEP-001", 3))
	require.Len(t, journal.entries, 1)

	entry := journal.entries[0]
	require.Equal(t, "MEMBER_DEPOSIT", entry.SourceType)
	require.Len(t, entry.Lines, 2)

	debits, credits := lineTotals(t, entry)
	require.True(t, debits.Equal(credits))
	require.True(t, creditOn(t, entry, accounts.RoleMemberDeposits).Equal(amt("2500.00")))
}

func TestPostDepositRejectsNonPositiveAmount(t *testing.T) {
	adapter, journal := newTestAdapter()

	err := adapter.PostDeposit(context.Background(), 7, decimal.Zero, "DEP-002", 3)
	require.ErrorIs(t, err, loans.ErrInvalidAmount)
	require.Empty(t, journal.entries)
}
