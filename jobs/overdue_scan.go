package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/umoja-sacco/umoja-core/internal/lending/loans"
)

// OverdueScanHandler returns the asynq handler that flags instalments past
// their due date.
func OverdueScanHandler(svc *loans.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueScanPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		asOf := payload.AsOf
		if asOf.IsZero() {
			asOf = time.Now()
		}
		result, err := svc.MarkOverdue(ctx, asOf)
		if err != nil {
			return err
		}
		logger.Info("overdue scan completed",
			slog.Time("as_of", asOf),
			slog.Int64("flagged", result.InstalmentsFlagged),
			slog.Int64("defaulted", result.LoansDefaulted))
		return nil
	}
}

// LedgerIntegrityHandler returns the asynq handler for the nightly ledger
// check.
func LedgerIntegrityHandler(checker *LedgerIntegrityChecker) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return checker.Run(ctx)
	}
}
