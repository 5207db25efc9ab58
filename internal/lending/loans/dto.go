package loans

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
)

// CreateLoanInput groups fields required to register a loan application.
type CreateLoanInput struct {
	MemberID   int64
	Principal  decimal.Decimal
	TermMonths int
	Rate       decimal.Decimal
	RatePeriod amortization.RatePeriod
	Frequency  amortization.Frequency
	Interest   amortization.InterestType

	ProcessingFeePct decimal.Decimal
	InsuranceFeePct  decimal.Decimal
	AppraisalFeePct  decimal.Decimal
	ExciseOnFeesPct  decimal.Decimal

	UpfrontInterestDeducted bool
}

// Validate checks the application parameters.
func (in CreateLoanInput) Validate() error {
	if in.MemberID == 0 {
		return fmt.Errorf("lending: member required")
	}
	if !in.Principal.IsPositive() {
		return fmt.Errorf("principal: %w", ErrInvalidAmount)
	}
	if in.TermMonths <= 0 {
		return amortization.ErrInvalidTerm
	}
	if in.Rate.IsNegative() {
		return amortization.ErrInvalidRate
	}
	for _, pct := range []decimal.Decimal{in.ProcessingFeePct, in.InsuranceFeePct, in.AppraisalFeePct, in.ExciseOnFeesPct} {
		if pct.IsNegative() {
			return fmt.Errorf("fees: %w", ErrInvalidAmount)
		}
	}
	switch in.Interest {
	case amortization.InterestFlat, amortization.InterestReducingBalance:
	default:
		return fmt.Errorf("lending: unknown interest type %q", in.Interest)
	}
	if _, err := amortization.PeriodsPerYear(in.Frequency); err != nil {
		return err
	}
	return nil
}

// RestructureInput wraps parameters for a loan modification.
type RestructureInput struct {
	LoanID  int64
	ActorID int64

	// NewTermMonths applies to extend_term.
	NewTermMonths int
	// NewRate applies to adjust_rate.
	NewRate decimal.Decimal
	// WaiveAmount applies to waive_penalty.
	WaiveAmount decimal.Decimal
	// GraceDays applies to grace_period.
	GraceDays int
}
