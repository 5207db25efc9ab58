package amortization

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestInstalmentCount(t *testing.T) {
	cases := []struct {
		name       string
		termMonths int
		freq       Frequency
		want       int
	}{
		{"monthly one year", 12, FrequencyMonthly, 12},
		{"weekly six months", 6, FrequencyWeekly, 26},
		{"bi-weekly one year", 12, FrequencyBiWeekly, 26},
		{"daily one month", 1, FrequencyDaily, 30},
		{"weekly one month rounds", 1, FrequencyWeekly, 4},
		{"minimum one instalment", 1, FrequencyMonthly, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := InstalmentCount(tc.termMonths, tc.freq)
			if err != nil {
				t.Fatalf("InstalmentCount: %v", err)
			}
			if got != tc.want {
				t.Fatalf("InstalmentCount(%d, %s) = %d, want %d", tc.termMonths, tc.freq, got, tc.want)
			}
		})
	}

	if _, err := InstalmentCount(0, FrequencyMonthly); !errors.Is(err, ErrInvalidTerm) {
		t.Fatalf("expected ErrInvalidTerm, got %v", err)
	}
	if _, err := InstalmentCount(12, Frequency("fortnightly")); !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("expected ErrUnknownFrequency, got %v", err)
	}
}

func TestPeriodicRate(t *testing.T) {
	r, err := PeriodicRate(d("12"), RatePeriodAnnual, FrequencyMonthly)
	if err != nil {
		t.Fatalf("PeriodicRate: %v", err)
	}
	if !r.Equal(d("0.01")) {
		t.Fatalf("12%% annual monthly = %s, want 0.01", r)
	}

	r, err = PeriodicRate(d("1"), RatePeriodMonthly, FrequencyMonthly)
	if err != nil {
		t.Fatalf("PeriodicRate: %v", err)
	}
	if !r.Equal(d("0.01")) {
		t.Fatalf("1%% monthly monthly = %s, want 0.01", r)
	}

	if _, err := PeriodicRate(d("-1"), RatePeriodAnnual, FrequencyMonthly); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := PeriodicRate(d("1"), RatePeriod("quarterly"), FrequencyMonthly); !errors.Is(err, ErrUnknownRatePeriod) {
		t.Fatalf("expected ErrUnknownRatePeriod, got %v", err)
	}
}

func TestAmortizeFlat(t *testing.T) {
	res, err := Amortize(d("100000"), 12, d("10"), InterestFlat, FrequencyMonthly, RatePeriodAnnual)
	if err != nil {
		t.Fatalf("Amortize: %v", err)
	}
	if res.InstalmentCount != 12 {
		t.Fatalf("instalments = %d, want 12", res.InstalmentCount)
	}
	if !res.TotalInterest.Equal(d("10000.00")) {
		t.Fatalf("total interest = %s, want 10000.00", res.TotalInterest)
	}
	if !res.Instalment.Equal(d("9166.67")) {
		t.Fatalf("instalment = %s, want 9166.67", res.Instalment)
	}
	if !res.TotalRepayment.Equal(d("110000.00")) {
		t.Fatalf("total repayment = %s, want 110000.00", res.TotalRepayment)
	}
}

func TestAmortizeReducingBalance(t *testing.T) {
	res, err := Amortize(d("200000"), 24, d("12"), InterestReducingBalance, FrequencyMonthly, RatePeriodAnnual)
	if err != nil {
		t.Fatalf("Amortize: %v", err)
	}
	if res.InstalmentCount != 24 {
		t.Fatalf("instalments = %d, want 24", res.InstalmentCount)
	}
	if !res.PeriodicRate.Equal(d("0.01")) {
		t.Fatalf("periodic rate = %s, want 0.01", res.PeriodicRate)
	}
	if !res.Instalment.Equal(d("9414.69")) {
		t.Fatalf("instalment = %s, want 9414.69", res.Instalment)
	}
	wantInterest := res.Instalment.Mul(decimal.NewFromInt(24)).Sub(d("200000"))
	if !res.TotalInterest.Equal(wantInterest.Round(2)) {
		t.Fatalf("total interest = %s, want %s", res.TotalInterest, wantInterest)
	}
}

func TestAmortizeZeroRate(t *testing.T) {
	res, err := Amortize(d("12000"), 12, decimal.Zero, InterestReducingBalance, FrequencyMonthly, RatePeriodAnnual)
	if err != nil {
		t.Fatalf("Amortize: %v", err)
	}
	if !res.Instalment.Equal(d("1000.00")) {
		t.Fatalf("instalment = %s, want 1000.00", res.Instalment)
	}
	if !res.TotalInterest.IsZero() {
		t.Fatalf("total interest = %s, want 0", res.TotalInterest)
	}
}

func TestAmortizeUnknownInterestType(t *testing.T) {
	if _, err := Amortize(d("100000"), 12, d("10"), InterestType("compound"), FrequencyMonthly, RatePeriodAnnual); !errors.Is(err, ErrUnknownInterestType) {
		t.Fatalf("expected ErrUnknownInterestType, got %v", err)
	}
}

func TestFees(t *testing.T) {
	fees := Fees(d("100000"), d("3"), d("1"), d("0.5"), d("20"))
	if !fees.Processing.Equal(d("3000.00")) {
		t.Fatalf("processing = %s, want 3000.00", fees.Processing)
	}
	if !fees.Insurance.Equal(d("1000.00")) {
		t.Fatalf("insurance = %s, want 1000.00", fees.Insurance)
	}
	if !fees.Appraisal.Equal(d("500.00")) {
		t.Fatalf("appraisal = %s, want 500.00", fees.Appraisal)
	}
	if !fees.Subtotal.Equal(d("4500.00")) {
		t.Fatalf("subtotal = %s, want 4500.00", fees.Subtotal)
	}
	if !fees.Excise.Equal(d("900.00")) {
		t.Fatalf("excise = %s, want 900.00", fees.Excise)
	}
	if !fees.TotalFees.Equal(d("5400.00")) {
		t.Fatalf("total fees = %s, want 5400.00", fees.TotalFees)
	}
}

func TestFeesZeroPercentages(t *testing.T) {
	fees := Fees(d("50000"), decimal.Zero, decimal.Zero, decimal.Zero, d("20"))
	if !fees.TotalFees.IsZero() {
		t.Fatalf("total fees = %s, want 0", fees.TotalFees)
	}
}
