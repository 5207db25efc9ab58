package journals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
	"github.com/umoja-sacco/umoja-core/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context) ([]JournalEntry, error)
	Get(ctx context.Context, entryID int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
// Entry numbers come from a database sequence so they stay strictly
// increasing and unique under concurrent posting.
type TxRepository interface {
	// GetAccountForPosting loads and row-locks the account so concurrent
	// postings serialize their balance updates.
	GetAccountForPosting(ctx context.Context, ref accounts.Ref) (accounts.Account, error)
	InsertJournalEntry(ctx context.Context, in PostingInput, totalDebit, totalCredit decimal.Decimal, reversalOf *int64) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []JournalLine) error
	AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error
	GetJournalWithLines(ctx context.Context, entryID int64) (JournalEntry, []JournalLine, error)
	MarkReversed(ctx context.Context, originalID, reversalID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, number, date, description, reference, source_type, source_id, total_debit, total_credit, status, is_reversed, reversal_of_id, reversed_by_id, posted_by, created_at, updated_at`

const lineColumns = `id, je_id, account_id, debit, credit, member_id, loan_id, memo, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.SourceType, &e.SourceID,
		&e.TotalDebit, &e.TotalCredit, &e.Status, &e.IsReversed, &e.ReversalOfID, &e.ReversedByID,
		&e.PostedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func (r *repository) List(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		err := rows.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.SourceType, &e.SourceID,
			&e.TotalDebit, &e.TotalCredit, &e.Status, &e.IsReversed, &e.ReversalOfID, &e.ReversedByID,
			&e.PostedBy, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := r.queryLines(ctx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) queryLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	rows, err := r.db.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLines(rows)
}

func collectLines(rows pgx.Rows) ([]JournalLine, error) {
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.MemberID, &line.LoanID, &line.Memo, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetAccountForPosting(ctx context.Context, ref accounts.Ref) (accounts.Account, error) {
	query := `SELECT id, code, name, type, normal_balance, parent_id, is_header, is_system, is_active, current_balance, created_at, updated_at
FROM accounts WHERE `
	var arg any
	if ref.ID() != 0 {
		query += `id=$1`
		arg = ref.ID()
	} else {
		query += `code=$1`
		arg = ref.Code()
	}
	query += ` FOR UPDATE`
	var a accounts.Account
	err := r.tx.QueryRow(ctx, query, arg).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsHeader, &a.IsSystem, &a.IsActive, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput, totalDebit, totalCredit decimal.Decimal, reversalOf *int64) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (number, date, description, reference, source_type, source_id, total_debit, total_credit, status, reversal_of_id, posted_by)
VALUES (nextval('journal_entry_number_seq'),$1,$2,$3,$4,$5,$6,$7,'POSTED',$8,$9)
RETURNING id, number, created_at, updated_at`,
		in.Date, in.Description, in.Reference, in.SourceType, in.SourceID, totalDebit, totalCredit, reversalOf, in.PostedBy)
	entry := JournalEntry{
		Date:         in.Date,
		Description:  in.Description,
		Reference:    in.Reference,
		SourceType:   in.SourceType,
		SourceID:     in.SourceID,
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		Status:       JournalStatusPosted,
		ReversalOfID: reversalOf,
		PostedBy:     in.PostedBy,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, debit, credit, member_id, loan_id, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, entryID, line.AccountID, line.Debit, line.Credit, line.MemberID, line.LoanID, line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, accountID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) GetJournalWithLines(ctx context.Context, entryID int64) (JournalEntry, []JournalLine, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID))
	if err != nil {
		return JournalEntry{}, nil, err
	}
	rows, err := r.tx.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	defer rows.Close()
	lines, err := collectLines(rows)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	return entry, lines, nil
}

func (r *txRepository) MarkReversed(ctx context.Context, originalID, reversalID int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE journal_entries SET is_reversed=TRUE, reversed_by_id=$2, updated_at=NOW() WHERE id=$1`, originalID, reversalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}
