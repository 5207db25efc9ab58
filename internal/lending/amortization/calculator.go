// Package amortization is the pure numeric engine for loan schedules: rate
// normalization, instalment counts, fee breakdowns, and repayment plans.
// All money passes through decimal arithmetic rounded half-up to 2 places.
package amortization

import (
	"errors"

	"github.com/shopspring/decimal"
)

// InterestType selects the interest computation model.
type InterestType string

const (
	// InterestFlat computes interest once on the original principal and
	// spreads it evenly across instalments.
	InterestFlat InterestType = "flat"
	// InterestReducingBalance computes interest each period on the declining
	// outstanding principal.
	InterestReducingBalance InterestType = "reducing_balance"
)

// Frequency is the repayment cadence.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi_weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// RatePeriod is the period the quoted rate applies to.
type RatePeriod string

const (
	RatePeriodAnnual  RatePeriod = "annual"
	RatePeriodMonthly RatePeriod = "monthly"
	RatePeriodWeekly  RatePeriod = "weekly"
	RatePeriodDaily   RatePeriod = "daily"
)

var (
	// ErrInvalidTerm indicates a term that produces no instalments.
	ErrInvalidTerm = errors.New("amortization: term must produce at least one instalment")
	// ErrInvalidRate indicates a negative rate.
	ErrInvalidRate = errors.New("amortization: rate must not be negative")
	// ErrUnknownFrequency indicates an unsupported repayment frequency.
	ErrUnknownFrequency = errors.New("amortization: unknown repayment frequency")
	// ErrUnknownRatePeriod indicates an unsupported rate period.
	ErrUnknownRatePeriod = errors.New("amortization: unknown rate period")
	// ErrUnknownInterestType indicates an unsupported interest model.
	ErrUnknownInterestType = errors.New("amortization: unknown interest type")
)

var hundred = decimal.NewFromInt(100)

// PeriodsPerYear returns how many instalments a frequency produces per year.
func PeriodsPerYear(f Frequency) (int, error) {
	switch f {
	case FrequencyDaily:
		return 365, nil
	case FrequencyWeekly:
		return 52, nil
	case FrequencyBiWeekly:
		return 26, nil
	case FrequencyMonthly:
		return 12, nil
	default:
		return 0, ErrUnknownFrequency
	}
}

func ratePeriodsPerYear(p RatePeriod) (int, error) {
	switch p {
	case RatePeriodAnnual:
		return 1, nil
	case RatePeriodMonthly:
		return 12, nil
	case RatePeriodWeekly:
		return 52, nil
	case RatePeriodDaily:
		return 365, nil
	default:
		return 0, ErrUnknownRatePeriod
	}
}

// PeriodicRate normalizes a quoted percentage rate to the per-instalment
// rate for the chosen repayment frequency. The result is a fraction, not a
// percentage.
func PeriodicRate(rate decimal.Decimal, period RatePeriod, freq Frequency) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, ErrInvalidRate
	}
	rppy, err := ratePeriodsPerYear(period)
	if err != nil {
		return decimal.Zero, err
	}
	ppy, err := PeriodsPerYear(freq)
	if err != nil {
		return decimal.Zero, err
	}
	annual := rate.Div(hundred).Mul(decimal.NewFromInt(int64(rppy)))
	return annual.Div(decimal.NewFromInt(int64(ppy))), nil
}

// InstalmentCount converts a term in months to the instalment count for a
// frequency: round(termMonths * periodsPerYear / 12), minimum 1.
func InstalmentCount(termMonths int, freq Frequency) (int, error) {
	if termMonths <= 0 {
		return 0, ErrInvalidTerm
	}
	ppy, err := PeriodsPerYear(freq)
	if err != nil {
		return 0, err
	}
	n := int(decimal.NewFromInt(int64(termMonths)).
		Mul(decimal.NewFromInt(int64(ppy))).
		Div(decimal.NewFromInt(12)).
		Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Result summarises an amortization computation.
type Result struct {
	InstalmentCount int
	PeriodicRate    decimal.Decimal
	Instalment      decimal.Decimal
	TotalInterest   decimal.Decimal
	TotalRepayment  decimal.Decimal
}

// Amortize computes the per-instalment repayment for a loan.
//
// Flat: interest = principal * periodicRate * n, identical every instalment.
// Reducing balance: the standard annuity P*r*(1+r)^n / ((1+r)^n - 1) when
// r > 0, else P/n.
func Amortize(principal decimal.Decimal, termMonths int, rate decimal.Decimal, interestType InterestType, freq Frequency, period RatePeriod) (Result, error) {
	n, err := InstalmentCount(termMonths, freq)
	if err != nil {
		return Result{}, err
	}
	r, err := PeriodicRate(rate, period, freq)
	if err != nil {
		return Result{}, err
	}
	count := decimal.NewFromInt(int64(n))

	var instalment, totalInterest decimal.Decimal
	switch interestType {
	case InterestFlat:
		totalInterest = principal.Mul(r).Mul(count).Round(2)
		instalment = principal.Add(totalInterest).Div(count).Round(2)
	case InterestReducingBalance:
		if r.IsPositive() {
			onePlusR := decimal.NewFromInt(1).Add(r)
			factor := onePlusR.Pow(count)
			instalment = principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1))).Round(2)
		} else {
			instalment = principal.Div(count).Round(2)
		}
		totalInterest = instalment.Mul(count).Sub(principal).Round(2)
	default:
		return Result{}, ErrUnknownInterestType
	}

	return Result{
		InstalmentCount: n,
		PeriodicRate:    r,
		Instalment:      instalment,
		TotalInterest:   totalInterest,
		TotalRepayment:  principal.Add(totalInterest).Round(2),
	}, nil
}

// FeeBreakdown itemises upfront charges deducted from a disbursement.
type FeeBreakdown struct {
	Processing decimal.Decimal
	Insurance  decimal.Decimal
	Appraisal  decimal.Decimal
	Subtotal   decimal.Decimal
	Excise     decimal.Decimal
	TotalFees  decimal.Decimal
}

// Fees computes each fee as amount*pct/100, then excise duty on the fee
// subtotal. Every step rounds half-up to 2 places.
func Fees(amount, processingPct, insurancePct, appraisalPct, exciseOnFeesPct decimal.Decimal) FeeBreakdown {
	processing := amount.Mul(processingPct).Div(hundred).Round(2)
	insurance := amount.Mul(insurancePct).Div(hundred).Round(2)
	appraisal := amount.Mul(appraisalPct).Div(hundred).Round(2)
	subtotal := processing.Add(insurance).Add(appraisal)
	excise := subtotal.Mul(exciseOnFeesPct).Div(hundred).Round(2)
	return FeeBreakdown{
		Processing: processing,
		Insurance:  insurance,
		Appraisal:  appraisal,
		Subtotal:   subtotal,
		Excise:     excise,
		TotalFees:  subtotal.Add(excise),
	}
}
