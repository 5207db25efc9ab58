package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/journals"
	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
	"github.com/umoja-sacco/umoja-core/internal/lending/loans"
)

// AccountResolver maps posting roles to chart accounts.
type AccountResolver interface {
	ResolveRole(ctx context.Context, role accounts.Role) (accounts.Account, error)
}

// Journal posts balanced entries.
type Journal interface {
	PostEntry(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
}

// Adapter translates loan and savings events into journal entries. It is the
// only place that knows which chart accounts a business event touches; the
// lending services stay ignorant of the ledger layout.
type Adapter struct {
	resolver AccountResolver
	journal  Journal
	now      func() time.Time
}

func NewAdapter(resolver AccountResolver, journal Journal) *Adapter {
	return &Adapter{resolver: resolver, journal: journal, now: time.Now}
}

func (a *Adapter) WithNow(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

func (a *Adapter) role(ctx context.Context, role accounts.Role) (accounts.Ref, error) {
	acc, err := a.resolver.ResolveRole(ctx, role)
	if err != nil {
		return accounts.Ref{}, err
	}
	return accounts.ByID(acc.ID), nil
}

// PostDisbursement records the loan payout: the receivable carries the gross
// principal, cash goes out net, and the withheld fees land on their income
// and payable accounts. Upfront interest, when deducted, is recognized
// immediately.
func (a *Adapter) PostDisbursement(ctx context.Context, loan loans.Loan, fees amortization.FeeBreakdown, actorID int64) error {
	receivable, err := a.role(ctx, accounts.RoleLoansReceivable)
	if err != nil {
		return err
	}
	cash, err := a.role(ctx, accounts.RoleCash)
	if err != nil {
		return err
	}

	loanID := loan.ID
	memberID := loan.MemberID
	lines := []journals.PostingLineInput{{
		Account:  receivable,
		Debit:    loan.Principal,
		MemberID: &memberID,
		LoanID:   &loanID,
		Memo:     "Loan principal",
	}, {
		Account:  cash,
		Credit:   loan.NetDisbursed,
		MemberID: &memberID,
		LoanID:   &loanID,
		Memo:     "Net disbursement",
	}}

	feeIncome := fees.Processing.Add(fees.Appraisal)
	if feeIncome.IsPositive() {
		ref, err := a.role(ctx, accounts.RoleFeeIncome)
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{
			Account: ref, Credit: feeIncome, MemberID: &memberID, LoanID: &loanID,
			Memo: "Processing and appraisal fees",
		})
	}
	if fees.Insurance.IsPositive() {
		ref, err := a.role(ctx, accounts.RoleInsurancePayable)
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{
			Account: ref, Credit: fees.Insurance, MemberID: &memberID, LoanID: &loanID,
			Memo: "Insurance premium withheld",
		})
	}
	if fees.Excise.IsPositive() {
		ref, err := a.role(ctx, accounts.RoleExcisePayable)
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{
			Account: ref, Credit: fees.Excise, MemberID: &memberID, LoanID: &loanID,
			Memo: "Excise duty on fees",
		})
	}
	if loan.UpfrontInterestDeducted && loan.TotalInterest.IsPositive() {
		ref, err := a.role(ctx, accounts.RoleInterestIncome)
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{
			Account: ref, Credit: loan.TotalInterest, MemberID: &memberID, LoanID: &loanID,
			Memo: "Upfront interest",
		})
	}

	date := a.now()
	if loan.DisbursedAt != nil {
		date = *loan.DisbursedAt
	}
	_, err = a.journal.PostEntry(ctx, journals.PostingInput{
		Date:        date,
		Description: fmt.Sprintf("Loan disbursement %s", loan.Reference),
		Reference:   loan.Reference.String(),
		SourceType:  "LOAN_DISBURSEMENT",
		SourceID:    loan.Reference,
		PostedBy:    actorID,
		Lines:       lines,
	})
	return err
}

// PostRepayment records an allocated payment. Cash takes the full amount
// received; each allocated component lands on its own account, and any
// leftover beyond the loan's outstanding is parked on the member's deposit
// account.
func (a *Adapter) PostRepayment(ctx context.Context, loan loans.Loan, result loans.AllocationResult, actorID int64) error {
	received := result.AmountApplied.Add(result.Leftover)
	if !received.IsPositive() {
		return nil
	}
	cash, err := a.role(ctx, accounts.RoleCash)
	if err != nil {
		return err
	}

	loanID := loan.ID
	memberID := loan.MemberID
	lines := []journals.PostingLineInput{{
		Account:  cash,
		Debit:    received,
		MemberID: &memberID,
		LoanID:   &loanID,
		Memo:     "Loan repayment received",
	}}

	credit := func(role accounts.Role, amount decimal.Decimal, memo string) error {
		if !amount.IsPositive() {
			return nil
		}
		ref, err := a.role(ctx, role)
		if err != nil {
			return err
		}
		lines = append(lines, journals.PostingLineInput{
			Account: ref, Credit: amount, MemberID: &memberID, LoanID: &loanID, Memo: memo,
		})
		return nil
	}
	if err := credit(accounts.RolePenaltyIncome, result.PenaltyPaid, "Penalty collected"); err != nil {
		return err
	}
	if err := credit(accounts.RoleInterestIncome, result.InterestPaid, "Interest collected"); err != nil {
		return err
	}
	if err := credit(accounts.RoleInsurancePayable, result.InsurancePaid, "Insurance collected"); err != nil {
		return err
	}
	if err := credit(accounts.RoleLoansReceivable, result.PrincipalPaid, "Principal collected"); err != nil {
		return err
	}
	if err := credit(accounts.RoleMemberDeposits, result.Leftover, "Overpayment to deposits"); err != nil {
		return err
	}

	_, err = a.journal.PostEntry(ctx, journals.PostingInput{
		Date:        a.now(),
		Description: fmt.Sprintf("Loan repayment %s", loan.Reference),
		Reference:   loan.Reference.String(),
		SourceType:  "LOAN_REPAYMENT",
		SourceID:    loan.Reference,
		PostedBy:    actorID,
		Lines:       lines,
	})
	return err
}

// PostDeposit records a member savings deposit.
func (a *Adapter) PostDeposit(ctx context.Context, memberID int64, amount decimal.Decimal, reference string, actorID int64) error {
	if !amount.IsPositive() {
		return loans.ErrInvalidAmount
	}
	cash, err := a.role(ctx, accounts.RoleCash)
	if err != nil {
		return err
	}
	deposits, err := a.role(ctx, accounts.RoleMemberDeposits)
	if err != nil {
		return err
	}
	member := memberID
	_, err = a.journal.PostEntry(ctx, journals.PostingInput{
		Date:        a.now(),
		Description: fmt.Sprintf("Member deposit %s", reference),
		Reference:   reference,
		SourceType:  "MEMBER_DEPOSIT",
		SourceID:    uuid.New(),
		PostedBy:    actorID,
		Lines: []journals.PostingLineInput{
			{Account: cash, Debit: amount.Round(2), MemberID: &member, Memo: "Deposit received"},
			{Account: deposits, Credit: amount.Round(2), MemberID: &member, Memo: "Member deposit"},
		},
	})
	return err
}
