package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values. Entries are created
// posted and stay posted; reversal adds a linked entry instead of editing.
type JournalStatus string

const (
	JournalStatusPosted JournalStatus = "POSTED"
)

// JournalEntry captures posting metadata. Immutable after posting except for
// the reversal linkage.
type JournalEntry struct {
	ID           int64
	Number       int64
	Date         time.Time
	Description  string
	Reference    string
	SourceType   string
	SourceID     uuid.UUID
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	Status       JournalStatus
	IsReversed   bool
	ReversalOfID *int64
	ReversedByID *int64
	PostedBy     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores a debit or a credit amount for an account, never both.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	MemberID  *int64
	LoanID    *int64
	Memo      string
	CreatedAt time.Time
}
