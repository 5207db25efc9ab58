package loans

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExtendTermRegeneratesSchedule(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)
	ctx := context.Background()

	// Settle the first instalment so it survives the regeneration.
	_, err := svc.AllocatePayment(ctx, loan.ID, d("9166.66"), 1)
	require.NoError(t, err)

	updated, err := svc.ExtendTerm(ctx, RestructureInput{LoanID: loan.ID, ActorID: 1, NewTermMonths: 18})
	require.NoError(t, err)

	require.Equal(t, LoanStatusRestructured, updated.Status)
	require.True(t, updated.IsRestructured)
	require.Equal(t, 18, updated.TermMonths)

	instalments := repo.instalments[loan.ID]
	// 1 settled instalment plus 17 regenerated ones.
	require.Len(t, instalments, 18)
	require.Equal(t, InstalmentStatusPaid, instalments[0].Status)
	for i, inst := range instalments[1:] {
		require.Equal(t, i+2, inst.Number)
		require.Equal(t, InstalmentStatusPending, inst.Status)
	}

	// Regenerated principal covers exactly what the paid instalment left.
	remaining := decimal.Zero
	for _, inst := range instalments[1:] {
		remaining = remaining.Add(inst.ExpectedPrincipal)
	}
	require.True(t, remaining.Equal(d("100000").Sub(instalments[0].ExpectedPrincipal)),
		"regenerated principal = %s", remaining)

	require.Len(t, repo.restructures, 1)
	require.Equal(t, RestructureExtendTerm, repo.restructures[0].Type)
	require.NotEmpty(t, repo.restructures[0].Before)
	require.NotEmpty(t, repo.restructures[0].After)
}

func TestExtendTermKeepsPartiallyPaidInstalment(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)
	ctx := context.Background()

	// 2000 covers the first instalment's interest and part of its principal.
	_, err := svc.AllocatePayment(ctx, loan.ID, d("2000"), 1)
	require.NoError(t, err)

	updated, err := svc.ExtendTerm(ctx, RestructureInput{LoanID: loan.ID, ActorID: 1, NewTermMonths: 18})
	require.NoError(t, err)

	instalments := repo.instalments[loan.ID]
	// The partial instalment survives alongside 17 regenerated ones.
	require.Len(t, instalments, 18)
	require.Equal(t, InstalmentStatusPartial, instalments[0].Status)
	require.True(t, instalments[0].PaidInterest.Equal(d("833.33")), "paid interest = %s", instalments[0].PaidInterest)
	require.True(t, instalments[0].PaidPrincipal.Equal(d("1166.67")), "paid principal = %s", instalments[0].PaidPrincipal)

	// The loan's balance matches what the schedule can still collect.
	outstanding := decimal.Zero
	for _, inst := range instalments {
		outstanding = outstanding.Add(inst.TotalOutstanding())
	}
	require.True(t, updated.OutstandingBalance.Equal(outstanding),
		"loan outstanding %s != schedule outstanding %s", updated.OutstandingBalance, outstanding)

	// The remainder of the partial instalment is still collectable.
	result, err := svc.AllocatePayment(ctx, loan.ID, d("7166.66"), 1)
	require.NoError(t, err)
	require.True(t, result.Leftover.IsZero())
	require.Equal(t, InstalmentStatusPaid, repo.instalments[loan.ID][0].Status)
}

func TestExtendTermRejectsNonPositiveRemainder(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	_, err := svc.ExtendTerm(context.Background(), RestructureInput{LoanID: loan.ID, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestExtendTermRequiresActiveLoan(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	loan, err := svc.Create(ctx, flatApplication())
	require.NoError(t, err)

	_, err = svc.ExtendTerm(ctx, RestructureInput{LoanID: loan.ID, ActorID: 1, NewTermMonths: 18})
	require.ErrorIs(t, err, ErrInvalidLoanState)
}

func TestAdjustInterestRateReducesInstalment(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	updated, err := svc.AdjustInterestRate(context.Background(), RestructureInput{
		LoanID: loan.ID, ActorID: 1, NewRate: d("5"),
	})
	require.NoError(t, err)

	require.True(t, updated.Rate.Equal(d("5")))
	require.True(t, updated.InstalmentAmount.LessThan(loan.InstalmentAmount),
		"instalment %s should shrink from %s", updated.InstalmentAmount, loan.InstalmentAmount)

	instalments := repo.instalments[loan.ID]
	require.Len(t, instalments, 12)
	totalInterest := decimal.Zero
	for _, inst := range instalments {
		totalInterest = totalInterest.Add(inst.ExpectedInterest)
	}
	require.True(t, totalInterest.Equal(d("5000.00")), "total interest = %s", totalInterest)
}

func TestWaivePenaltyReducesOutstandingOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.AssessPenalty(ctx, loan.ID, 1, d("500"), 1))

	updated, err := svc.WaivePenalty(ctx, RestructureInput{LoanID: loan.ID, ActorID: 1, WaiveAmount: d("500")})
	require.NoError(t, err)
	require.True(t, updated.OutstandingBalance.Equal(d("110000.00")), "outstanding = %s", updated.OutstandingBalance)

	// The schedule keeps the penalty; only the aggregate is relieved.
	first := repo.instalments[loan.ID][0]
	require.True(t, first.ExpectedPenalty.Equal(d("500.00")))

	require.Len(t, repo.restructures, 1)
	require.Equal(t, RestructureWaive, repo.restructures[0].Type)
}

func TestWaivePenaltyClampsAtZero(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	updated, err := svc.WaivePenalty(context.Background(), RestructureInput{
		LoanID: loan.ID, ActorID: 1, WaiveAmount: d("999999"),
	})
	require.NoError(t, err)
	require.True(t, updated.OutstandingBalance.IsZero())
}

func TestWaivePenaltyRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	_, err := svc.WaivePenalty(context.Background(), RestructureInput{LoanID: loan.ID, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGrantGracePeriodShiftsDueDates(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	before := append([]Instalment(nil), repo.instalments[loan.ID]...)

	updated, err := svc.GrantGracePeriod(context.Background(), RestructureInput{
		LoanID: loan.ID, ActorID: 1, GraceDays: 30,
	})
	require.NoError(t, err)

	after := repo.instalments[loan.ID]
	for i := range after {
		want := before[i].DueDate.AddDate(0, 0, 30)
		require.True(t, after[i].DueDate.Equal(want),
			"instalment %d due = %s, want %s", after[i].Number, after[i].DueDate, want)
	}
	require.NotNil(t, updated.NextPaymentDate)
	require.True(t, updated.NextPaymentDate.Equal(before[0].DueDate.AddDate(0, 0, 30)))

	require.Len(t, repo.restructures, 1)
	require.Equal(t, RestructureGracePeriod, repo.restructures[0].Type)
}

func TestGrantGracePeriodRejectsNonPositiveDays(t *testing.T) {
	svc, _, _ := newTestService(t)
	loan := disbursedLoan(t, svc)

	_, err := svc.GrantGracePeriod(context.Background(), RestructureInput{LoanID: loan.ID, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRepaymentStillWorksAfterRestructure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	loan := disbursedLoan(t, svc)
	ctx := context.Background()

	_, err := svc.ExtendTerm(ctx, RestructureInput{LoanID: loan.ID, ActorID: 1, NewTermMonths: 24})
	require.NoError(t, err)

	result, err := svc.AllocatePayment(ctx, loan.ID, d("2000"), 1)
	require.NoError(t, err)
	require.True(t, result.AmountApplied.Equal(d("2000")))
	require.Equal(t, LoanStatusRestructured, repo.loans[loan.ID].Status)
}
