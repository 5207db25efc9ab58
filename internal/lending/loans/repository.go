package loans

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umoja-sacco/umoja-core/internal/platform/db"
)

// Repository encapsulates DB operations for loans and instalments.
type Repository interface {
	Get(ctx context.Context, id int64) (Loan, error)
	List(ctx context.Context) ([]Loan, error)
	Instalments(ctx context.Context, loanID int64) ([]Instalment, error)
	// MarkOverdueInstalments flags pending and partial instalments past due.
	MarkOverdueInstalments(ctx context.Context, asOf time.Time) (int64, error)
	// MarkDefaultedLoans moves active loans with instalments overdue since
	// before the cutoff into defaulted status.
	MarkDefaultedLoans(ctx context.Context, cutoff time.Time) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a loan transaction. Loan
// mutations load the row FOR UPDATE so concurrent repayments against the
// same loan serialize instead of both reading a stale balance.
type TxRepository interface {
	GetLoanForUpdate(ctx context.Context, id int64) (Loan, error)
	InsertLoan(ctx context.Context, loan Loan) (Loan, error)
	UpdateLoan(ctx context.Context, loan Loan) error
	ListInstalments(ctx context.Context, loanID int64) ([]Instalment, error)
	InsertInstalments(ctx context.Context, loanID int64, instalments []Instalment) error
	UpdateInstalment(ctx context.Context, inst Instalment) error
	// DeleteUnpaidInstalments removes instalments a restructure replaces.
	// Any instalment carrying a payment, full or partial, is never touched.
	DeleteUnpaidInstalments(ctx context.Context, loanID int64) error
	InsertRestructureRecord(ctx context.Context, rec RestructureRecord) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const loanColumns = `id, reference, member_id, principal, term_months, rate, rate_period, frequency, interest_type,
processing_fee_pct, insurance_fee_pct, appraisal_fee_pct, excise_on_fees_pct, upfront_interest_deducted,
total_fees, total_interest, net_disbursed, instalment_amount, amount_repaid, outstanding_balance,
next_payment_date, status, is_restructured, disbursed_at, closed_at, created_at, updated_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var l Loan
	err := row.Scan(&l.ID, &l.Reference, &l.MemberID, &l.Principal, &l.TermMonths, &l.Rate, &l.RatePeriod, &l.Frequency, &l.Interest,
		&l.ProcessingFeePct, &l.InsuranceFeePct, &l.AppraisalFeePct, &l.ExciseOnFeesPct, &l.UpfrontInterestDeducted,
		&l.TotalFees, &l.TotalInterest, &l.NetDisbursed, &l.InstalmentAmount, &l.AmountRepaid, &l.OutstandingBalance,
		&l.NextPaymentDate, &l.Status, &l.IsRestructured, &l.DisbursedAt, &l.ClosedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}
	return l, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Loan, error) {
	return scanLoan(r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id=$1`, id))
}

func (r *repository) List(ctx context.Context) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		var l Loan
		err := rows.Scan(&l.ID, &l.Reference, &l.MemberID, &l.Principal, &l.TermMonths, &l.Rate, &l.RatePeriod, &l.Frequency, &l.Interest,
			&l.ProcessingFeePct, &l.InsuranceFeePct, &l.AppraisalFeePct, &l.ExciseOnFeesPct, &l.UpfrontInterestDeducted,
			&l.TotalFees, &l.TotalInterest, &l.NetDisbursed, &l.InstalmentAmount, &l.AmountRepaid, &l.OutstandingBalance,
			&l.NextPaymentDate, &l.Status, &l.IsRestructured, &l.DisbursedAt, &l.ClosedAt, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) Instalments(ctx context.Context, loanID int64) ([]Instalment, error) {
	return queryInstalments(ctx, r.db, loanID)
}

func (r *repository) MarkOverdueInstalments(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE loan_instalments SET status='overdue', updated_at=NOW()
WHERE status IN ('pending','partial') AND due_date < $1`, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) MarkDefaultedLoans(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE loans SET status='defaulted', updated_at=NOW()
WHERE status IN ('disbursed','restructured') AND id IN (
	SELECT DISTINCT loan_id FROM loan_instalments WHERE status='overdue' AND due_date < $1)`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const instalmentColumns = `id, loan_id, number, due_date,
expected_principal, expected_interest, expected_penalty, expected_insurance,
paid_principal, paid_interest, paid_penalty, paid_insurance,
status, paid_at, created_at, updated_at`

func queryInstalments(ctx context.Context, q queryer, loanID int64) ([]Instalment, error) {
	rows, err := q.Query(ctx, `SELECT `+instalmentColumns+` FROM loan_instalments WHERE loan_id=$1 ORDER BY due_date ASC, number ASC`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Instalment
	for rows.Next() {
		var i Instalment
		err := rows.Scan(&i.ID, &i.LoanID, &i.Number, &i.DueDate,
			&i.ExpectedPrincipal, &i.ExpectedInterest, &i.ExpectedPenalty, &i.ExpectedInsurance,
			&i.PaidPrincipal, &i.PaidInterest, &i.PaidPenalty, &i.PaidInsurance,
			&i.Status, &i.PaidAt, &i.CreatedAt, &i.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetLoanForUpdate(ctx context.Context, id int64) (Loan, error) {
	return scanLoan(r.tx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertLoan(ctx context.Context, loan Loan) (Loan, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO loans (reference, member_id, principal, term_months, rate, rate_period, frequency, interest_type,
processing_fee_pct, insurance_fee_pct, appraisal_fee_pct, excise_on_fees_pct, upfront_interest_deducted,
total_fees, total_interest, net_disbursed, instalment_amount, amount_repaid, outstanding_balance, next_payment_date, status, is_restructured)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
RETURNING id, created_at, updated_at`,
		loan.Reference, loan.MemberID, loan.Principal, loan.TermMonths, loan.Rate, loan.RatePeriod, loan.Frequency, loan.Interest,
		loan.ProcessingFeePct, loan.InsuranceFeePct, loan.AppraisalFeePct, loan.ExciseOnFeesPct, loan.UpfrontInterestDeducted,
		loan.TotalFees, loan.TotalInterest, loan.NetDisbursed, loan.InstalmentAmount, loan.AmountRepaid, loan.OutstandingBalance,
		loan.NextPaymentDate, loan.Status, loan.IsRestructured)
	if err := row.Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return Loan{}, err
	}
	return loan, nil
}

func (r *txRepository) UpdateLoan(ctx context.Context, loan Loan) error {
	tag, err := r.tx.Exec(ctx, `UPDATE loans SET principal=$2, term_months=$3, rate=$4, total_fees=$5, total_interest=$6,
net_disbursed=$7, instalment_amount=$8, amount_repaid=$9, outstanding_balance=$10, next_payment_date=$11,
status=$12, is_restructured=$13, disbursed_at=$14, closed_at=$15, updated_at=NOW()
WHERE id=$1`,
		loan.ID, loan.Principal, loan.TermMonths, loan.Rate, loan.TotalFees, loan.TotalInterest,
		loan.NetDisbursed, loan.InstalmentAmount, loan.AmountRepaid, loan.OutstandingBalance, loan.NextPaymentDate,
		loan.Status, loan.IsRestructured, loan.DisbursedAt, loan.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *txRepository) ListInstalments(ctx context.Context, loanID int64) ([]Instalment, error) {
	return queryInstalments(ctx, r.tx, loanID)
}

func (r *txRepository) InsertInstalments(ctx context.Context, loanID int64, instalments []Instalment) error {
	for _, inst := range instalments {
		if _, err := r.tx.Exec(ctx, `INSERT INTO loan_instalments (loan_id, number, due_date,
expected_principal, expected_interest, expected_penalty, expected_insurance,
paid_principal, paid_interest, paid_penalty, paid_insurance, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			loanID, inst.Number, inst.DueDate,
			inst.ExpectedPrincipal, inst.ExpectedInterest, inst.ExpectedPenalty, inst.ExpectedInsurance,
			inst.PaidPrincipal, inst.PaidInterest, inst.PaidPenalty, inst.PaidInsurance, inst.Status); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) UpdateInstalment(ctx context.Context, inst Instalment) error {
	tag, err := r.tx.Exec(ctx, `UPDATE loan_instalments SET due_date=$2,
expected_principal=$3, expected_interest=$4, expected_penalty=$5, expected_insurance=$6,
paid_principal=$7, paid_interest=$8, paid_penalty=$9, paid_insurance=$10,
status=$11, paid_at=$12, updated_at=NOW()
WHERE id=$1`,
		inst.ID, inst.DueDate,
		inst.ExpectedPrincipal, inst.ExpectedInterest, inst.ExpectedPenalty, inst.ExpectedInsurance,
		inst.PaidPrincipal, inst.PaidInterest, inst.PaidPenalty, inst.PaidInsurance,
		inst.Status, inst.PaidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *txRepository) DeleteUnpaidInstalments(ctx context.Context, loanID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM loan_instalments
WHERE loan_id=$1 AND status <> 'paid'
  AND paid_principal = 0 AND paid_interest = 0 AND paid_penalty = 0 AND paid_insurance = 0`, loanID)
	return err
}

func (r *txRepository) InsertRestructureRecord(ctx context.Context, rec RestructureRecord) error {
	before, err := json.Marshal(rec.Before)
	if err != nil {
		return err
	}
	after, err := json.Marshal(rec.After)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO loan_restructures (loan_id, type, before, after, actor_id)
VALUES ($1,$2,$3,$4,$5)`, rec.LoanID, rec.Type, before, after, rec.ActorID)
	return err
}
