package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies the ledger balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskOverdueScan flags instalments past their due date.
	TaskOverdueScan = "loans:overdue_scan"
)

// OverdueScanPayload carries the cutoff for the overdue scan. A zero AsOf
// means "now" at execution time.
type OverdueScanPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewLedgerIntegrityTask constructs the nightly ledger check task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewOverdueScanTask constructs an overdue scan task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}
