package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
)

// Repository aggregates posted journal lines for reporting. Only lines of
// posted entries participate; reversals simply contribute their swapped
// amounts.
type Repository interface {
	// AccountTotals sums debits and credits per account over [from, to].
	// A nil from means from the beginning of the ledger.
	AccountTotals(ctx context.Context, from *time.Time, to time.Time) ([]AccountBalance, error)
	GetAccount(ctx context.Context, accountID int64) (accounts.Account, error)
	// OpeningNet returns the signed net on the account's normal side for all
	// postings strictly before the date.
	OpeningNet(ctx context.Context, accountID int64, before time.Time) (decimal.Decimal, error)
	AccountPostings(ctx context.Context, accountID int64, from *time.Time, to *time.Time) ([]PostingRow, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// accountTotalsQuery aggregates lines and entries in a subquery so the
// status and date bounds always apply to the summed rows. Filtering the
// entry join arm alone would let a line whose entry fails the bounds
// survive the outer LEFT JOIN with a NULL entry and still be summed.
const accountTotalsQuery = `SELECT a.id, a.code, a.name, a.type, a.normal_balance, a.is_header, a.is_active,
COALESCE(t.debit, 0), COALESCE(t.credit, 0)
FROM accounts a
LEFT JOIN (
	SELECT l.account_id, SUM(l.debit) AS debit, SUM(l.credit) AS credit
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.je_id
	WHERE e.status = 'POSTED' AND e.date <= $2 AND ($1::date IS NULL OR e.date >= $1)
	GROUP BY l.account_id
) t ON t.account_id = a.id
ORDER BY a.code`

func (r *repository) AccountTotals(ctx context.Context, from *time.Time, to time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, accountTotalsQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.NormalBalance, &b.IsHeader, &b.IsActive, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) GetAccount(ctx context.Context, accountID int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, normal_balance, parent_id, is_header, is_system, is_active, current_balance, created_at, updated_at
FROM accounts WHERE id=$1`, accountID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsHeader, &a.IsSystem, &a.IsActive, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *repository) OpeningNet(ctx context.Context, accountID int64, before time.Time) (decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id=$1 AND e.status='POSTED' AND e.date < $2`, accountID, before).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, err
	}
	acc, err := r.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if acc.NormalBalance == accounts.NormalBalanceCredit {
		return credit.Sub(debit), nil
	}
	return debit.Sub(credit), nil
}

func (r *repository) AccountPostings(ctx context.Context, accountID int64, from *time.Time, to *time.Time) ([]PostingRow, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.number, e.date, e.description, e.reference, l.debit, l.credit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE l.account_id=$1 AND e.status='POSTED'
  AND ($2::date IS NULL OR e.date >= $2)
  AND ($3::date IS NULL OR e.date <= $3)
ORDER BY e.date ASC, e.number ASC, l.id ASC`, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostingRow
	for rows.Next() {
		var p PostingRow
		if err := rows.Scan(&p.EntryID, &p.EntryNumber, &p.Date, &p.Description, &p.Reference, &p.Debit, &p.Credit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
