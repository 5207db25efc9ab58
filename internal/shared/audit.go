package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Action identifies what a service did to an entity. Values use the
// "<entity>.<verb>" form so the audit trail stays greppable.
type Action string

const (
	ActionJournalPost    Action = "journal.post"
	ActionJournalReverse Action = "journal.reverse"
	ActionLoanApprove    Action = "loan.approve"
	ActionLoanDisburse   Action = "loan.disburse"
	ActionLoanRepay      Action = "loan.repay"
	ActionLoanPenalty    Action = "loan.penalty"
)

// LoanRestructureAction builds the action for a restructuring variant,
// e.g. "loan.restructure.extend_term".
func LoanRestructureAction(kind string) Action {
	return Action("loan.restructure." + kind)
}

// AuditLog is one row destined for audit_logs. Meta carries the
// operation-specific detail (amounts, reference numbers) as JSONB.
type AuditLog struct {
	ActorID  int64
	Action   Action
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to the audit_logs table. Services record only after
// their transaction commits, so a failed write never blocks the operation.
type AuditLogger struct {
	pool *pgxpool.Pool
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. A zero At is stamped with the current time.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`, log.ActorID, string(log.Action), log.Entity, log.EntityID, metaJSON, log.At)
	return err
}
