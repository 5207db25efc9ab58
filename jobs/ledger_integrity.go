package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerIntegrityChecker verifies two ledger invariants: the global debit and
// credit totals match, and every account's cached balance agrees with the
// balance recomputed from its posted lines.
type LedgerIntegrityChecker struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewLedgerIntegrityChecker(pool *pgxpool.Pool, logger *slog.Logger) *LedgerIntegrityChecker {
	return &LedgerIntegrityChecker{pool: pool, logger: logger}
}

// Run executes both checks and returns an error on any violation so the job
// shows up as failed and retries.
func (c *LedgerIntegrityChecker) Run(ctx context.Context) error {
	var totalDebit, totalCredit decimal.Decimal
	err := c.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.je_id
WHERE e.status = 'POSTED'`).Scan(&totalDebit, &totalCredit)
	if err != nil {
		return fmt.Errorf("ledger integrity: sum lines: %w", err)
	}
	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("ledger integrity: global debits %s != credits %s", totalDebit, totalCredit)
	}

	rows, err := c.pool.Query(ctx, `
SELECT a.id, a.code, a.normal_balance, a.current_balance,
       COALESCE(SUM(l.debit), 0) AS debit,
       COALESCE(SUM(l.credit), 0) AS credit
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.je_id AND e.status = 'POSTED'
WHERE a.is_header = FALSE
GROUP BY a.id, a.code, a.normal_balance, a.current_balance`)
	if err != nil {
		return fmt.Errorf("ledger integrity: account totals: %w", err)
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var (
			id                    int64
			code, normal          string
			cached, debit, credit decimal.Decimal
		)
		if err := rows.Scan(&id, &code, &normal, &cached, &debit, &credit); err != nil {
			return fmt.Errorf("ledger integrity: scan account: %w", err)
		}
		expected := debit.Sub(credit)
		if normal == "CREDIT" {
			expected = credit.Sub(debit)
		}
		if !cached.Equal(expected) {
			drifted++
			c.logger.Error("account balance drift",
				slog.Int64("account_id", id),
				slog.String("code", code),
				slog.String("cached", cached.String()),
				slog.String("expected", expected.String()))
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ledger integrity: iterate accounts: %w", err)
	}
	if drifted > 0 {
		return fmt.Errorf("ledger integrity: %d accounts drifted from their posted lines", drifted)
	}

	c.logger.Info("ledger integrity check passed",
		slog.String("total_debit", totalDebit.String()),
		slog.String("total_credit", totalCredit.String()))
	return nil
}
