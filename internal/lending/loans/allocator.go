package loans

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationResult reports how one payment was split across instalment
// components. Leftover is any amount beyond total outstanding; the allocator
// never decides its destination.
type AllocationResult struct {
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
	PenaltyPaid   decimal.Decimal `json:"penalty_paid"`
	InsurancePaid decimal.Decimal `json:"insurance_paid"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Leftover      decimal.Decimal `json:"leftover"`
	LoanClosed    bool            `json:"loan_closed"`
}

// allocate applies a payment to the loan's outstanding instalments using the
// fixed waterfall penalty -> interest -> insurance -> principal, earliest
// obligation first with the instalment number as tie-break. It mutates the
// passed instalments and returns the touched ones.
func allocate(instalments []Instalment, payment decimal.Decimal, now time.Time) (AllocationResult, []*Instalment) {
	result := AllocationResult{
		PrincipalPaid: decimal.Zero,
		InterestPaid:  decimal.Zero,
		PenaltyPaid:   decimal.Zero,
		InsurancePaid: decimal.Zero,
		AmountApplied: decimal.Zero,
		Leftover:      decimal.Zero,
	}

	open := make([]*Instalment, 0, len(instalments))
	for idx := range instalments {
		if instalments[idx].Status != InstalmentStatusPaid {
			open = append(open, &instalments[idx])
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].DueDate.Equal(open[j].DueDate) {
			return open[i].DueDate.Before(open[j].DueDate)
		}
		return open[i].Number < open[j].Number
	})

	remaining := payment
	var touched []*Instalment
	for _, inst := range open {
		if !remaining.IsPositive() {
			break
		}
		applied := false

		take := func(outstanding decimal.Decimal, paid *decimal.Decimal, bucket *decimal.Decimal) {
			if !remaining.IsPositive() || !outstanding.IsPositive() {
				return
			}
			amount := decimal.Min(remaining, outstanding)
			*paid = paid.Add(amount)
			*bucket = bucket.Add(amount)
			remaining = remaining.Sub(amount)
			result.AmountApplied = result.AmountApplied.Add(amount)
			applied = true
		}

		take(inst.OutstandingPenalty(), &inst.PaidPenalty, &result.PenaltyPaid)
		take(inst.OutstandingInterest(), &inst.PaidInterest, &result.InterestPaid)
		take(inst.OutstandingInsurance(), &inst.PaidInsurance, &result.InsurancePaid)
		take(inst.OutstandingPrincipal(), &inst.PaidPrincipal, &result.PrincipalPaid)

		if !applied {
			continue
		}
		if inst.TotalOutstanding().IsPositive() {
			inst.Status = InstalmentStatusPartial
		} else {
			inst.Status = InstalmentStatusPaid
			paidAt := now
			inst.PaidAt = &paidAt
		}
		inst.UpdatedAt = now
		touched = append(touched, inst)
	}

	result.Leftover = remaining
	return result, touched
}

// nextUnpaidDueDate returns the earliest due date still carrying an
// outstanding amount, or nil when the schedule is fully settled.
func nextUnpaidDueDate(instalments []Instalment) *time.Time {
	var next *time.Time
	for idx := range instalments {
		inst := instalments[idx]
		if inst.Status == InstalmentStatusPaid {
			continue
		}
		if next == nil || inst.DueDate.Before(*next) {
			due := inst.DueDate
			next = &due
		}
	}
	return next
}
