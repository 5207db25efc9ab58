package amortization

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleSpec carries everything needed to generate a repayment plan.
type ScheduleSpec struct {
	Principal  decimal.Decimal
	TermMonths int
	Rate       decimal.Decimal
	Interest   InterestType
	Frequency  Frequency
	RatePeriod RatePeriod
	// StartDate anchors the plan; the first instalment falls one period
	// after it.
	StartDate time.Time
	// UpfrontInterestDeducted marks loans whose full interest was collected
	// out of the disbursement. Scheduled interest is forced to zero.
	UpfrontInterestDeducted bool
	// InsurancePerInstalment is an optional recurring premium collected with
	// each instalment.
	InsurancePerInstalment decimal.Decimal
}

// ScheduleLine is one generated instalment.
type ScheduleLine struct {
	Number    int
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Insurance decimal.Decimal
	Total     decimal.Decimal
}

// dueDate returns the due date of the i-th instalment (1-based).
func dueDate(start time.Time, freq Frequency, i int) time.Time {
	switch freq {
	case FrequencyDaily:
		return start.AddDate(0, 0, i)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*i)
	case FrequencyBiWeekly:
		return start.AddDate(0, 0, 14*i)
	default:
		return start.AddDate(0, i, 0)
	}
}

// BuildSchedule generates the full repayment plan. Cumulative rounding drift
// is absorbed into the final instalment so scheduled principal sums exactly
// to the principal, and flat interest sums exactly to the computed total.
func BuildSchedule(spec ScheduleSpec) ([]ScheduleLine, error) {
	result, err := Amortize(spec.Principal, spec.TermMonths, spec.Rate, spec.Interest, spec.Frequency, spec.RatePeriod)
	if err != nil {
		return nil, err
	}
	n := result.InstalmentCount
	count := decimal.NewFromInt(int64(n))
	insurance := spec.InsurancePerInstalment.Round(2)

	lines := make([]ScheduleLine, 0, n)

	if spec.UpfrontInterestDeducted {
		// Interest already collected at disbursement; only principal remains.
		per := spec.Principal.Div(count).Round(2)
		paid := decimal.Zero
		for i := 1; i <= n; i++ {
			principal := per
			if i == n {
				principal = spec.Principal.Sub(paid)
			}
			paid = paid.Add(principal)
			lines = append(lines, ScheduleLine{
				Number:    i,
				DueDate:   dueDate(spec.StartDate, spec.Frequency, i),
				Principal: principal,
				Interest:  decimal.Zero,
				Insurance: insurance,
				Total:     principal.Add(insurance),
			})
		}
		return lines, nil
	}

	switch spec.Interest {
	case InterestFlat:
		interestPer := result.TotalInterest.Div(count).Round(2)
		principalPer := spec.Principal.Div(count).Round(2)
		paidPrincipal := decimal.Zero
		paidInterest := decimal.Zero
		for i := 1; i <= n; i++ {
			principal := principalPer
			interest := interestPer
			if i == n {
				// The last line takes whatever rounding left over, so its
				// interest can differ from the others by a few cents. Sums
				// matching principal and total interest exactly matter more
				// than every instalment charging identical interest.
				principal = spec.Principal.Sub(paidPrincipal)
				interest = result.TotalInterest.Sub(paidInterest)
			}
			paidPrincipal = paidPrincipal.Add(principal)
			paidInterest = paidInterest.Add(interest)
			lines = append(lines, ScheduleLine{
				Number:    i,
				DueDate:   dueDate(spec.StartDate, spec.Frequency, i),
				Principal: principal,
				Interest:  interest,
				Insurance: insurance,
				Total:     principal.Add(interest).Add(insurance),
			})
		}
	case InterestReducingBalance:
		// Interest recomputed on the declining balance each period.
		balance := spec.Principal
		for i := 1; i <= n; i++ {
			interest := balance.Mul(result.PeriodicRate).Round(2)
			principal := result.Instalment.Sub(interest)
			if i == n || principal.GreaterThan(balance) {
				principal = balance
			}
			balance = balance.Sub(principal)
			lines = append(lines, ScheduleLine{
				Number:    i,
				DueDate:   dueDate(spec.StartDate, spec.Frequency, i),
				Principal: principal,
				Interest:  interest,
				Insurance: insurance,
				Total:     principal.Add(interest).Add(insurance),
			})
		}
	default:
		return nil, ErrUnknownInterestType
	}
	return lines, nil
}
