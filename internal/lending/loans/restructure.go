package loans

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
	internalShared "github.com/umoja-sacco/umoja-core/internal/shared"
)

// restructurable reports whether the loan may be modified.
func restructurable(status LoanStatus) bool {
	switch status {
	case LoanStatusDisbursed, LoanStatusDefaulted, LoanStatusRestructured:
		return true
	default:
		return false
	}
}

// ExtendTerm discards unpaid future instalments and regenerates them for the
// remaining principal over the new remaining term. Paid instalments stay
// untouched.
func (s *Service) ExtendTerm(ctx context.Context, input RestructureInput) (Loan, error) {
	if input.NewTermMonths <= 0 {
		return Loan{}, ErrInvalidParameter
	}
	return s.regenerate(ctx, input, RestructureExtendTerm, input.NewTermMonths, nil)
}

// AdjustInterestRate regenerates unpaid future instalments with the new rate
// over the existing remaining term.
func (s *Service) AdjustInterestRate(ctx context.Context, input RestructureInput) (Loan, error) {
	if input.NewRate.IsNegative() {
		return Loan{}, amortization.ErrInvalidRate
	}
	rate := input.NewRate
	return s.regenerate(ctx, input, RestructureAdjustRate, 0, &rate)
}

// regenerate rebuilds the unpaid tail of the schedule. Instalments that
// received any payment stay in place; everything still fully unpaid is
// replaced.
func (s *Service) regenerate(ctx context.Context, input RestructureInput, rtype RestructureType, newTermMonths int, newRate *decimal.Decimal) (Loan, error) {
	var loan Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, input.LoanID)
		if err != nil {
			return err
		}
		if !restructurable(current.Status) {
			return ErrInvalidLoanState
		}

		instalments, err := tx.ListInstalments(ctx, current.ID)
		if err != nil {
			return err
		}

		// Instalments carrying any payment are elapsed obligations and are
		// excluded from regeneration.
		kept := instalments[:0:0]
		settledPrincipal := decimal.Zero
		keptOutstanding := decimal.Zero
		for _, inst := range instalments {
			if inst.Status == InstalmentStatusPaid || inst.PaidPrincipal.IsPositive() || inst.PaidInterest.IsPositive() || inst.PaidPenalty.IsPositive() || inst.PaidInsurance.IsPositive() {
				kept = append(kept, inst)
				settledPrincipal = settledPrincipal.Add(inst.ExpectedPrincipal)
				keptOutstanding = keptOutstanding.Add(inst.TotalOutstanding())
			}
		}

		termMonths := current.TermMonths
		if newTermMonths > 0 {
			termMonths = newTermMonths
		}
		rate := current.Rate
		if newRate != nil {
			rate = *newRate
		}

		ppy, err := amortization.PeriodsPerYear(current.Frequency)
		if err != nil {
			return err
		}
		elapsedMonths := len(kept) * 12 / ppy
		remainingMonths := termMonths - elapsedMonths
		if remainingMonths <= 0 {
			return ErrInvalidParameter
		}

		remainingPrincipal := current.Principal.Sub(settledPrincipal)
		if !remainingPrincipal.IsPositive() {
			return ErrInvalidParameter
		}

		before := snapshot(current)

		start := s.now()
		if last := latestDueDate(kept); last != nil && last.After(start) {
			start = *last
		}
		schedule, err := amortization.BuildSchedule(amortization.ScheduleSpec{
			Principal:               remainingPrincipal,
			TermMonths:              remainingMonths,
			Rate:                    rate,
			Interest:                current.Interest,
			Frequency:               current.Frequency,
			RatePeriod:              current.RatePeriod,
			StartDate:               start,
			UpfrontInterestDeducted: current.UpfrontInterestDeducted,
		})
		if err != nil {
			return err
		}
		result, err := amortization.Amortize(remainingPrincipal, remainingMonths, rate, current.Interest, current.Frequency, current.RatePeriod)
		if err != nil {
			return err
		}

		if err := tx.DeleteUnpaidInstalments(ctx, current.ID); err != nil {
			return err
		}
		regenerated := make([]Instalment, 0, len(schedule))
		outstanding := keptOutstanding
		for _, line := range schedule {
			regenerated = append(regenerated, Instalment{
				LoanID:            current.ID,
				Number:            len(kept) + line.Number,
				DueDate:           line.DueDate,
				ExpectedPrincipal: line.Principal,
				ExpectedInterest:  line.Interest,
				ExpectedPenalty:   decimal.Zero,
				ExpectedInsurance: line.Insurance,
				PaidPrincipal:     decimal.Zero,
				PaidInterest:      decimal.Zero,
				PaidPenalty:       decimal.Zero,
				PaidInsurance:     decimal.Zero,
				Status:            InstalmentStatusPending,
			})
			outstanding = outstanding.Add(line.Total)
		}
		if err := tx.InsertInstalments(ctx, current.ID, regenerated); err != nil {
			return err
		}

		current.TermMonths = termMonths
		current.Rate = rate
		current.InstalmentAmount = result.Instalment
		current.OutstandingBalance = outstanding
		firstDue := nextDue(kept, regenerated)
		current.NextPaymentDate = firstDue
		current.Status = LoanStatusRestructured
		current.IsRestructured = true
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}

		if err := tx.InsertRestructureRecord(ctx, RestructureRecord{
			LoanID:  current.ID,
			Type:    rtype,
			Before:  before,
			After:   snapshot(current),
			ActorID: input.ActorID,
		}); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	s.recordAudit(ctx, input.ActorID, internalShared.LoanRestructureAction(string(rtype)), loan.ID, nil)
	return loan, nil
}

// WaivePenalty reduces the outstanding balance directly without touching the
// schedule.
func (s *Service) WaivePenalty(ctx context.Context, input RestructureInput) (Loan, error) {
	if !input.WaiveAmount.IsPositive() {
		return Loan{}, ErrInvalidAmount
	}
	var loan Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, input.LoanID)
		if err != nil {
			return err
		}
		if !restructurable(current.Status) {
			return ErrInvalidLoanState
		}
		before := snapshot(current)
		current.OutstandingBalance = current.OutstandingBalance.Sub(input.WaiveAmount.Round(2))
		if current.OutstandingBalance.IsNegative() {
			current.OutstandingBalance = decimal.Zero
		}
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}
		if err := tx.InsertRestructureRecord(ctx, RestructureRecord{
			LoanID:  current.ID,
			Type:    RestructureWaive,
			Before:  before,
			After:   snapshot(current),
			ActorID: input.ActorID,
		}); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	s.recordAudit(ctx, input.ActorID, internalShared.LoanRestructureAction(string(RestructureWaive)), loan.ID, map[string]any{
		"amount": input.WaiveAmount.String(),
	})
	return loan, nil
}

// GrantGracePeriod shifts every remaining unpaid instalment's due date
// forward by the given number of days.
func (s *Service) GrantGracePeriod(ctx context.Context, input RestructureInput) (Loan, error) {
	if input.GraceDays <= 0 {
		return Loan{}, ErrInvalidParameter
	}
	var loan Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, input.LoanID)
		if err != nil {
			return err
		}
		if !restructurable(current.Status) {
			return ErrInvalidLoanState
		}
		instalments, err := tx.ListInstalments(ctx, current.ID)
		if err != nil {
			return err
		}
		before := snapshot(current)
		for idx := range instalments {
			inst := &instalments[idx]
			if inst.Status == InstalmentStatusPaid {
				continue
			}
			inst.DueDate = inst.DueDate.AddDate(0, 0, input.GraceDays)
			if err := tx.UpdateInstalment(ctx, *inst); err != nil {
				return err
			}
		}
		current.NextPaymentDate = nextUnpaidDueDate(instalments)
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}
		if err := tx.InsertRestructureRecord(ctx, RestructureRecord{
			LoanID:  current.ID,
			Type:    RestructureGracePeriod,
			Before:  before,
			After:   snapshot(current),
			ActorID: input.ActorID,
		}); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	s.recordAudit(ctx, input.ActorID, internalShared.LoanRestructureAction(string(RestructureGracePeriod)), loan.ID, map[string]any{
		"days": input.GraceDays,
	})
	return loan, nil
}

func snapshot(loan Loan) map[string]any {
	next := ""
	if loan.NextPaymentDate != nil {
		next = loan.NextPaymentDate.Format("2006-01-02")
	}
	return map[string]any{
		"term_months":         loan.TermMonths,
		"rate":                loan.Rate.String(),
		"instalment_amount":   loan.InstalmentAmount.String(),
		"outstanding_balance": loan.OutstandingBalance.String(),
		"next_payment_date":   next,
		"status":              string(loan.Status),
	}
}

func latestDueDate(instalments []Instalment) *time.Time {
	var last *time.Time
	for idx := range instalments {
		due := instalments[idx].DueDate
		if last == nil || due.After(*last) {
			last = &due
		}
	}
	return last
}

func nextDue(kept, regenerated []Instalment) *time.Time {
	all := make([]Instalment, 0, len(kept)+len(regenerated))
	all = append(all, kept...)
	all = append(all, regenerated...)
	return nextUnpaidDueDate(all)
}
