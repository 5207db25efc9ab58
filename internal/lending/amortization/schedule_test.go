package amortization

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func buildSpec(interest InterestType) ScheduleSpec {
	return ScheduleSpec{
		Principal:  d("100000"),
		TermMonths: 12,
		Rate:       d("10"),
		Interest:   interest,
		Frequency:  FrequencyMonthly,
		RatePeriod: RatePeriodAnnual,
		StartDate:  time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
}

func sumPrincipal(lines []ScheduleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Principal)
	}
	return total
}

func sumInterest(lines []ScheduleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Interest)
	}
	return total
}

func TestBuildScheduleFlat(t *testing.T) {
	lines, err := BuildSchedule(buildSpec(InterestFlat))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(lines) != 12 {
		t.Fatalf("lines = %d, want 12", len(lines))
	}

	for i, line := range lines[:11] {
		if !line.Principal.Equal(d("8333.33")) {
			t.Fatalf("line %d principal = %s, want 8333.33", i+1, line.Principal)
		}
		if !line.Interest.Equal(d("833.33")) {
			t.Fatalf("line %d interest = %s, want 833.33", i+1, line.Interest)
		}
	}
	last := lines[11]
	if !last.Principal.Equal(d("8333.37")) {
		t.Fatalf("final principal = %s, want 8333.37", last.Principal)
	}
	if !last.Interest.Equal(d("833.37")) {
		t.Fatalf("final interest = %s, want 833.37", last.Interest)
	}

	if !sumPrincipal(lines).Equal(d("100000")) {
		t.Fatalf("principal sum = %s, want 100000", sumPrincipal(lines))
	}
	if !sumInterest(lines).Equal(d("10000.00")) {
		t.Fatalf("interest sum = %s, want 10000.00", sumInterest(lines))
	}
}

func TestBuildScheduleReducingBalance(t *testing.T) {
	lines, err := BuildSchedule(buildSpec(InterestReducingBalance))
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	if len(lines) != 12 {
		t.Fatalf("lines = %d, want 12", len(lines))
	}

	for i := 1; i < len(lines); i++ {
		if !lines[i].Interest.LessThan(lines[i-1].Interest) {
			t.Fatalf("interest did not decrease at line %d: %s -> %s", i+1, lines[i-1].Interest, lines[i].Interest)
		}
		if !lines[i].Principal.GreaterThan(lines[i-1].Principal) {
			t.Fatalf("principal did not increase at line %d: %s -> %s", i+1, lines[i-1].Principal, lines[i].Principal)
		}
	}
	if !sumPrincipal(lines).Equal(d("100000")) {
		t.Fatalf("principal sum = %s, want 100000", sumPrincipal(lines))
	}
}

func TestBuildScheduleUpfrontInterest(t *testing.T) {
	spec := buildSpec(InterestFlat)
	spec.UpfrontInterestDeducted = true
	lines, err := BuildSchedule(spec)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	for i, line := range lines {
		if !line.Interest.IsZero() {
			t.Fatalf("line %d interest = %s, want 0", i+1, line.Interest)
		}
	}
	if !sumPrincipal(lines).Equal(d("100000")) {
		t.Fatalf("principal sum = %s, want 100000", sumPrincipal(lines))
	}
}

func TestBuildScheduleDueDates(t *testing.T) {
	spec := buildSpec(InterestFlat)
	lines, err := BuildSchedule(spec)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	first := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !lines[0].DueDate.Equal(first) {
		t.Fatalf("first due date = %s, want %s", lines[0].DueDate, first)
	}
	last := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !lines[11].DueDate.Equal(last) {
		t.Fatalf("last due date = %s, want %s", lines[11].DueDate, last)
	}

	spec.Frequency = FrequencyWeekly
	weekly, err := BuildSchedule(spec)
	if err != nil {
		t.Fatalf("BuildSchedule weekly: %v", err)
	}
	if len(weekly) != 52 {
		t.Fatalf("weekly lines = %d, want 52", len(weekly))
	}
	if got := weekly[0].DueDate; !got.Equal(spec.StartDate.AddDate(0, 0, 7)) {
		t.Fatalf("first weekly due = %s, want one week after start", got)
	}
}

func TestBuildScheduleInsurancePerInstalment(t *testing.T) {
	spec := buildSpec(InterestFlat)
	spec.InsurancePerInstalment = d("250")
	lines, err := BuildSchedule(spec)
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	for i, line := range lines {
		if !line.Insurance.Equal(d("250.00")) {
			t.Fatalf("line %d insurance = %s, want 250.00", i+1, line.Insurance)
		}
		want := line.Principal.Add(line.Interest).Add(line.Insurance)
		if !line.Total.Equal(want) {
			t.Fatalf("line %d total = %s, want %s", i+1, line.Total, want)
		}
	}
}

func TestBuildScheduleUnknownInterestType(t *testing.T) {
	if _, err := BuildSchedule(buildSpec(InterestType("compound"))); !errors.Is(err, ErrUnknownInterestType) {
		t.Fatalf("expected ErrUnknownInterestType, got %v", err)
	}
}
