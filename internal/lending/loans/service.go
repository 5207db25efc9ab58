package loans

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
	internalShared "github.com/umoja-sacco/umoja-core/internal/shared"
)

// LedgerPort translates loan events into journal postings. Implemented by
// the posting adapter; the loans service never builds journal lines itself.
type LedgerPort interface {
	PostDisbursement(ctx context.Context, loan Loan, fees amortization.FeeBreakdown, actorID int64) error
	PostRepayment(ctx context.Context, loan Loan, result AllocationResult, actorID int64) error
}

// AuditPort records loan activity after a successful commit.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MetricsPort counts allocation activity.
type MetricsPort interface {
	PaymentAllocated()
}

// Service owns the loan lifecycle: application, approval, disbursement with
// schedule generation, payment allocation, and restructuring.
type Service struct {
	repo    Repository
	ledger  LedgerPort
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

func NewService(repo Repository, ledger LedgerPort, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, ledger: ledger, audit: audit, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Loan, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Loan, error) {
	return s.repo.List(ctx)
}

func (s *Service) Instalments(ctx context.Context, loanID int64) ([]Instalment, error) {
	return s.repo.Instalments(ctx, loanID)
}

// Create registers a pending loan application.
func (s *Service) Create(ctx context.Context, input CreateLoanInput) (Loan, error) {
	if err := input.Validate(); err != nil {
		return Loan{}, err
	}
	loan := Loan{
		Reference:               uuid.New(),
		MemberID:                input.MemberID,
		Principal:               input.Principal.Round(2),
		TermMonths:              input.TermMonths,
		Rate:                    input.Rate,
		RatePeriod:              input.RatePeriod,
		Frequency:               input.Frequency,
		Interest:                input.Interest,
		ProcessingFeePct:        input.ProcessingFeePct,
		InsuranceFeePct:         input.InsuranceFeePct,
		AppraisalFeePct:         input.AppraisalFeePct,
		ExciseOnFeesPct:         input.ExciseOnFeesPct,
		UpfrontInterestDeducted: input.UpfrontInterestDeducted,
		TotalFees:               decimal.Zero,
		TotalInterest:           decimal.Zero,
		NetDisbursed:            decimal.Zero,
		InstalmentAmount:        decimal.Zero,
		AmountRepaid:            decimal.Zero,
		OutstandingBalance:      decimal.Zero,
		Status:                  LoanStatusPending,
	}
	var created Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertLoan(ctx, loan)
		return err
	})
	if err != nil {
		return Loan{}, err
	}
	return created, nil
}

// Approve moves a pending application to approved.
func (s *Service) Approve(ctx context.Context, loanID, actorID int64) (Loan, error) {
	var loan Loan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if current.Status != LoanStatusPending {
			return ErrInvalidLoanState
		}
		current.Status = LoanStatusApproved
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	s.recordAudit(ctx, actorID, internalShared.ActionLoanApprove, loan.ID, nil)
	return loan, nil
}

// Disburse computes fees and the repayment plan, writes the full instalment
// schedule, and activates the loan. The disbursement entry is posted to the
// ledger after the loan transaction commits.
func (s *Service) Disburse(ctx context.Context, loanID, actorID int64) (Loan, error) {
	var (
		loan Loan
		fees amortization.FeeBreakdown
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if current.Status != LoanStatusApproved {
			return ErrInvalidLoanState
		}

		fees = amortization.Fees(current.Principal, current.ProcessingFeePct, current.InsuranceFeePct, current.AppraisalFeePct, current.ExciseOnFeesPct)
		result, err := amortization.Amortize(current.Principal, current.TermMonths, current.Rate, current.Interest, current.Frequency, current.RatePeriod)
		if err != nil {
			return err
		}

		now := s.now()
		schedule, err := amortization.BuildSchedule(amortization.ScheduleSpec{
			Principal:               current.Principal,
			TermMonths:              current.TermMonths,
			Rate:                    current.Rate,
			Interest:                current.Interest,
			Frequency:               current.Frequency,
			RatePeriod:              current.RatePeriod,
			StartDate:               now,
			UpfrontInterestDeducted: current.UpfrontInterestDeducted,
		})
		if err != nil {
			return err
		}

		instalments := make([]Instalment, 0, len(schedule))
		outstanding := decimal.Zero
		for _, line := range schedule {
			instalments = append(instalments, Instalment{
				LoanID:            current.ID,
				Number:            line.Number,
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
		if err := tx.InsertInstalments(ctx, current.ID, instalments); err != nil {
			return err
		}

		net := current.Principal.Sub(fees.TotalFees)
		if current.UpfrontInterestDeducted {
			net = net.Sub(result.TotalInterest)
		}

		disbursedAt := now
		firstDue := schedule[0].DueDate
		current.TotalFees = fees.TotalFees
		current.TotalInterest = result.TotalInterest
		current.NetDisbursed = net
		current.InstalmentAmount = result.Instalment
		current.OutstandingBalance = outstanding
		current.NextPaymentDate = &firstDue
		current.Status = LoanStatusDisbursed
		current.DisbursedAt = &disbursedAt
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	if s.ledger != nil {
		if err := s.ledger.PostDisbursement(ctx, loan, fees, actorID); err != nil {
			return Loan{}, fmt.Errorf("post disbursement: %w", err)
		}
	}
	s.recordAudit(ctx, actorID, internalShared.ActionLoanDisburse, loan.ID, map[string]any{
		"net_disbursed": loan.NetDisbursed.String(),
		"total_fees":    loan.TotalFees.String(),
	})
	return loan, nil
}

// AllocatePayment applies a repayment to the loan's outstanding instalments
// using the waterfall and updates the loan aggregate, all inside one
// transaction. Any overpayment beyond total outstanding comes back as
// Leftover; its destination is the caller's decision.
func (s *Service) AllocatePayment(ctx context.Context, loanID int64, amount decimal.Decimal, actorID int64) (AllocationResult, error) {
	if !amount.IsPositive() {
		return AllocationResult{}, ErrInvalidAmount
	}
	var (
		result AllocationResult
		loan   Loan
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		switch current.Status {
		case LoanStatusDisbursed, LoanStatusDefaulted, LoanStatusRestructured:
		default:
			return ErrInvalidLoanState
		}

		instalments, err := tx.ListInstalments(ctx, current.ID)
		if err != nil {
			return err
		}
		now := s.now()
		res, touched := allocate(instalments, amount.Round(2), now)
		for _, inst := range touched {
			if err := tx.UpdateInstalment(ctx, *inst); err != nil {
				return err
			}
		}

		current.AmountRepaid = current.AmountRepaid.Add(res.AmountApplied)
		current.OutstandingBalance = current.OutstandingBalance.Sub(res.AmountApplied)
		if current.OutstandingBalance.IsNegative() {
			// Rounding residue is absorbed, never surfaced.
			current.OutstandingBalance = decimal.Zero
		}
		current.NextPaymentDate = nextUnpaidDueDate(instalments)
		if current.OutstandingBalance.IsZero() {
			closedAt := now
			current.Status = LoanStatusPaid
			current.ClosedAt = &closedAt
			current.NextPaymentDate = nil
			res.LoanClosed = true
		}
		if err := tx.UpdateLoan(ctx, current); err != nil {
			return err
		}
		result = res
		loan = current
		return nil
	})
	if err != nil {
		return AllocationResult{}, err
	}
	if s.metrics != nil {
		s.metrics.PaymentAllocated()
	}
	if s.ledger != nil && result.AmountApplied.Add(result.Leftover).IsPositive() {
		if err := s.ledger.PostRepayment(ctx, loan, result, actorID); err != nil {
			return AllocationResult{}, fmt.Errorf("post repayment: %w", err)
		}
	}
	s.recordAudit(ctx, actorID, internalShared.ActionLoanRepay, loan.ID, map[string]any{
		"applied":  result.AmountApplied.String(),
		"leftover": result.Leftover.String(),
		"closed":   result.LoanClosed,
	})
	return result, nil
}

// AssessPenalty adds a late-payment penalty to one instalment and grows the
// loan's outstanding balance accordingly.
func (s *Service) AssessPenalty(ctx context.Context, loanID int64, instalmentNumber int, amount decimal.Decimal, actorID int64) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		switch current.Status {
		case LoanStatusDisbursed, LoanStatusDefaulted, LoanStatusRestructured:
		default:
			return ErrInvalidLoanState
		}
		instalments, err := tx.ListInstalments(ctx, current.ID)
		if err != nil {
			return err
		}
		for idx := range instalments {
			inst := &instalments[idx]
			if inst.Number != instalmentNumber {
				continue
			}
			if inst.Status == InstalmentStatusPaid {
				return ErrInvalidLoanState
			}
			inst.ExpectedPenalty = inst.ExpectedPenalty.Add(amount.Round(2))
			inst.UpdatedAt = s.now()
			if err := tx.UpdateInstalment(ctx, *inst); err != nil {
				return err
			}
			current.OutstandingBalance = current.OutstandingBalance.Add(amount.Round(2))
			return tx.UpdateLoan(ctx, current)
		}
		return ErrLoanNotFound
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, internalShared.ActionLoanPenalty, loanID, map[string]any{
		"instalment": instalmentNumber,
		"amount":     amount.String(),
	})
	return nil
}

// defaultCutoffDays is how long an instalment stays overdue before its loan
// is moved to defaulted.
const defaultCutoffDays = 90

// OverdueScanResult summarizes one run of the nightly scan.
type OverdueScanResult struct {
	InstalmentsFlagged int64
	LoansDefaulted     int64
}

// MarkOverdue flags pending and partial instalments whose due date has
// passed, then defaults loans that have carried an overdue instalment past
// the cutoff. Invoked by the nightly worker job.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (OverdueScanResult, error) {
	flagged, err := s.repo.MarkOverdueInstalments(ctx, asOf)
	if err != nil {
		return OverdueScanResult{}, err
	}
	defaulted, err := s.repo.MarkDefaultedLoans(ctx, asOf.AddDate(0, 0, -defaultCutoffDays))
	if err != nil {
		return OverdueScanResult{}, err
	}
	return OverdueScanResult{InstalmentsFlagged: flagged, LoansDefaulted: defaulted}, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action internalShared.Action, loanID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "loan",
		EntityID: fmt.Sprintf("%d", loanID),
		Meta:     meta,
		At:       s.now(),
	})
}
