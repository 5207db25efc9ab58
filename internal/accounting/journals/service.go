package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
	internalShared "github.com/umoja-sacco/umoja-core/internal/shared"
)

// AuditPort records posting activity after a successful commit.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// MetricsPort counts posting activity.
type MetricsPort interface {
	JournalPosted()
	JournalReversed()
}

// CacheInvalidator drops cached report payloads after a posting changes the
// balances they were built from.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service posts and reverses balanced journal entries. All writes for one
// posting happen inside a single transaction: entry, lines, and cached
// account balances commit or roll back together.
type Service struct {
	repo    Repository
	audit   AuditPort
	metrics MetricsPort
	cache   CacheInvalidator
	now     func() time.Time
}

func NewService(repo Repository, audit AuditPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithCacheInvalidator makes the service drop cached reports after each
// successful posting or reversal.
func (s *Service) WithCacheInvalidator(cache CacheInvalidator) {
	s.cache = cache
}

func (s *Service) List(ctx context.Context) ([]JournalEntry, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.repo.Get(ctx, entryID)
}

// PostEntry validates the input, allocates the next entry number, writes the
// entry with its lines, and applies every line to its account's cached
// balance using the account's normal side.
func (s *Service) PostEntry(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, totalDebit, totalCredit, err := resolveLines(ctx, tx, input.Lines)
		if err != nil {
			return err
		}
		inserted, err := tx.InsertJournalEntry(ctx, input, totalDebit, totalCredit, nil)
		if err != nil {
			return err
		}
		if err := tx.InsertJournalLines(ctx, inserted.ID, lines); err != nil {
			return err
		}
		inserted.Lines = lines
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
	if s.metrics != nil {
		s.metrics.JournalPosted()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   internalShared.ActionJournalPost,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"number":      entry.Number,
				"source_type": input.SourceType,
				"source_id":   input.SourceID.String(),
			},
			At: s.now(),
		})
	}
	return entry, nil
}

// ReverseEntry creates a new entry with every line's debit and credit
// swapped, links it to the original in both directions, and flags the
// original reversed. The original is never deleted or edited beyond the flag.
func (s *Service) ReverseEntry(ctx context.Context, input ReverseInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, errors.New("accounting: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, lines, err := tx.GetJournalWithLines(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if original.IsReversed {
			return shared.ErrAlreadyReversed
		}
		posting := PostingInput{
			Date:        s.now(),
			Description: defaultReversalMemo(input.Memo, original.Number),
			Reference:   original.Reference,
			SourceType:  original.SourceType + ":REVERSAL",
			SourceID:    uuid.New(),
			PostedBy:    input.ActorID,
		}
		swapped := reverseLines(lines)
		inserted, err := tx.InsertJournalEntry(ctx, posting, original.TotalCredit, original.TotalDebit, &original.ID)
		if err != nil {
			return err
		}
		if err := tx.InsertJournalLines(ctx, inserted.ID, swapped); err != nil {
			return err
		}
		if err := applyLines(ctx, tx, swapped); err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, inserted.ID); err != nil {
			return err
		}
		inserted.Lines = swapped
		reversal = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
	if s.metrics != nil {
		s.metrics.JournalReversed()
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  input.ActorID,
			Action:   internalShared.ActionJournalReverse,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", input.EntryID),
			Meta: map[string]any{
				"reversal_id":     reversal.ID,
				"reversal_number": reversal.Number,
			},
			At: s.now(),
		})
	}
	return reversal, nil
}

// resolveLines maps posting inputs to persisted lines with resolved account
// ids, rejecting inactive and header accounts, applies each line to its account's cached
// balance, and totals both columns.
func resolveLines(ctx context.Context, tx TxRepository, inputs []PostingLineInput) ([]JournalLine, decimal.Decimal, decimal.Decimal, error) {
	lines := make([]JournalLine, 0, len(inputs))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, in := range inputs {
		acct, err := tx.GetAccountForPosting(ctx, in.Account)
		if err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		if !acct.IsActive {
			return nil, decimal.Zero, decimal.Zero, shared.ErrAccountInactive
		}
		if acct.IsHeader {
			return nil, decimal.Zero, decimal.Zero, shared.ErrHeaderAccount
		}
		debit := in.Debit.Round(2)
		credit := in.Credit.Round(2)
		delta := debit.Sub(credit)
		if acct.NormalBalance == accounts.NormalBalanceCredit {
			delta = credit.Sub(debit)
		}
		if err := tx.AdjustAccountBalance(ctx, acct.ID, delta); err != nil {
			return nil, decimal.Zero, decimal.Zero, err
		}
		lines = append(lines, JournalLine{
			AccountID: acct.ID,
			Debit:     debit,
			Credit:    credit,
			MemberID:  in.MemberID,
			LoanID:    in.LoanID,
			Memo:      in.Memo,
		})
		totalDebit = totalDebit.Add(debit)
		totalCredit = totalCredit.Add(credit)
	}
	return lines, totalDebit, totalCredit, nil
}

// applyLines updates each account's cached balance: +debit-credit for
// debit-normal accounts, +credit-debit for credit-normal accounts.
func applyLines(ctx context.Context, tx TxRepository, lines []JournalLine) error {
	for _, line := range lines {
		acct, err := tx.GetAccountForPosting(ctx, accounts.ByID(line.AccountID))
		if err != nil {
			return err
		}
		delta := line.Debit.Sub(line.Credit)
		if acct.NormalBalance == accounts.NormalBalanceCredit {
			delta = line.Credit.Sub(line.Debit)
		}
		if err := tx.AdjustAccountBalance(ctx, acct.ID, delta); err != nil {
			return err
		}
	}
	return nil
}

func reverseLines(lines []JournalLine) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			MemberID:  line.MemberID,
			LoanID:    line.LoanID,
			Memo:      line.Memo,
		})
	}
	return out
}

func defaultReversalMemo(memo string, number int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of JE %d", number)
}
