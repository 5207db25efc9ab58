package loans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
)

// LoanStatus enumerates the loan lifecycle.
type LoanStatus string

const (
	LoanStatusPending      LoanStatus = "pending"
	LoanStatusApproved     LoanStatus = "approved"
	LoanStatusDisbursed    LoanStatus = "disbursed"
	LoanStatusPaid         LoanStatus = "paid"
	LoanStatusDefaulted    LoanStatus = "defaulted"
	LoanStatusRestructured LoanStatus = "restructured"
)

// InstalmentStatus enumerates instalment states.
type InstalmentStatus string

const (
	InstalmentStatusPending InstalmentStatus = "pending"
	InstalmentStatusPartial InstalmentStatus = "partial"
	InstalmentStatusOverdue InstalmentStatus = "overdue"
	InstalmentStatusPaid    InstalmentStatus = "paid"
)

// Loan models a member facility. OutstandingBalance tracks the remaining
// expected repayment (principal, interest, insurance, and accrued penalties)
// and is clamped at zero to absorb rounding residue.
type Loan struct {
	ID        int64
	Reference uuid.UUID
	MemberID  int64

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

	TotalFees          decimal.Decimal
	TotalInterest      decimal.Decimal
	NetDisbursed       decimal.Decimal
	InstalmentAmount   decimal.Decimal
	AmountRepaid       decimal.Decimal
	OutstandingBalance decimal.Decimal
	NextPaymentDate    *time.Time

	Status         LoanStatus
	IsRestructured bool
	DisbursedAt    *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Instalment is one scheduled repayment with expected and paid components.
type Instalment struct {
	ID     int64
	LoanID int64
	Number int

	DueDate time.Time

	ExpectedPrincipal decimal.Decimal
	ExpectedInterest  decimal.Decimal
	ExpectedPenalty   decimal.Decimal
	ExpectedInsurance decimal.Decimal

	PaidPrincipal decimal.Decimal
	PaidInterest  decimal.Decimal
	PaidPenalty   decimal.Decimal
	PaidInsurance decimal.Decimal

	Status    InstalmentStatus
	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutstandingPenalty returns the unpaid penalty component.
func (i Instalment) OutstandingPenalty() decimal.Decimal {
	return i.ExpectedPenalty.Sub(i.PaidPenalty)
}

// OutstandingInterest returns the unpaid interest component.
func (i Instalment) OutstandingInterest() decimal.Decimal {
	return i.ExpectedInterest.Sub(i.PaidInterest)
}

// OutstandingInsurance returns the unpaid insurance component.
func (i Instalment) OutstandingInsurance() decimal.Decimal {
	return i.ExpectedInsurance.Sub(i.PaidInsurance)
}

// OutstandingPrincipal returns the unpaid principal component.
func (i Instalment) OutstandingPrincipal() decimal.Decimal {
	return i.ExpectedPrincipal.Sub(i.PaidPrincipal)
}

// TotalOutstanding sums every unpaid component.
func (i Instalment) TotalOutstanding() decimal.Decimal {
	return i.OutstandingPenalty().
		Add(i.OutstandingInterest()).
		Add(i.OutstandingInsurance()).
		Add(i.OutstandingPrincipal())
}

// RestructureType enumerates supported loan modifications.
type RestructureType string

const (
	RestructureExtendTerm  RestructureType = "extend_term"
	RestructureAdjustRate  RestructureType = "adjust_rate"
	RestructureWaive       RestructureType = "waive_penalty"
	RestructureGracePeriod RestructureType = "grace_period"
)

// RestructureRecord is the before/after history entry appended on every
// restructure.
type RestructureRecord struct {
	ID        int64
	LoanID    int64
	Type      RestructureType
	Before    map[string]any
	After     map[string]any
	ActorID   int64
	CreatedAt time.Time
}
