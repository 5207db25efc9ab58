package journals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// fakeLedgerRepo keeps accounts, entries, and lines in memory and satisfies
// both the Repository and TxRepository interfaces.
type fakeLedgerRepo struct {
	accounts   map[int64]accounts.Account
	byCode     map[string]int64
	entries    map[int64]JournalEntry
	lines      map[int64][]JournalLine
	nextEntry  int64
	nextNumber int64
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	r := &fakeLedgerRepo{
		accounts:   make(map[int64]accounts.Account),
		byCode:     make(map[string]int64),
		entries:    make(map[int64]JournalEntry),
		lines:      make(map[int64][]JournalLine),
		nextEntry:  1,
		nextNumber: 1,
	}
	r.addAccount(1, "1000", accounts.AccountTypeAsset, true)
	r.addAccount(2, "2000", accounts.AccountTypeLiability, true)
	r.addAccount(3, "4000", accounts.AccountTypeIncome, true)
	r.addAccount(4, "1900", accounts.AccountTypeAsset, false)
	r.addAccount(5, "1", accounts.AccountTypeAsset, true)
	header := r.accounts[5]
	header.IsHeader = true
	r.accounts[5] = header
	return r
}

func (r *fakeLedgerRepo) addAccount(id int64, code string, typ accounts.AccountType, active bool) {
	r.accounts[id] = accounts.Account{
		ID:             id,
		Code:           code,
		Type:           typ,
		NormalBalance:  accounts.NormalBalanceFor(typ),
		IsActive:       active,
		CurrentBalance: decimal.Zero,
	}
	r.byCode[code] = id
}

func (r *fakeLedgerRepo) List(_ context.Context) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeLedgerRepo) Get(_ context.Context, entryID int64) (JournalEntry, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	return entry, nil
}

func (r *fakeLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *fakeLedgerRepo) GetAccountForPosting(_ context.Context, ref accounts.Ref) (accounts.Account, error) {
	id := ref.ID()
	if id == 0 {
		var ok bool
		id, ok = r.byCode[ref.Code()]
		if !ok {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
	}
	acct, ok := r.accounts[id]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return acct, nil
}

func (r *fakeLedgerRepo) InsertJournalEntry(_ context.Context, in PostingInput, totalDebit, totalCredit decimal.Decimal, reversalOf *int64) (JournalEntry, error) {
	entry := JournalEntry{
		ID:           r.nextEntry,
		Number:       r.nextNumber,
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
	r.nextEntry++
	r.nextNumber++
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeLedgerRepo) InsertJournalLines(_ context.Context, entryID int64, lines []JournalLine) error {
	r.lines[entryID] = append([]JournalLine(nil), lines...)
	return nil
}

func (r *fakeLedgerRepo) AdjustAccountBalance(_ context.Context, accountID int64, delta decimal.Decimal) error {
	acct, ok := r.accounts[accountID]
	if !ok {
		return shared.ErrAccountNotFound
	}
	acct.CurrentBalance = acct.CurrentBalance.Add(delta)
	r.accounts[accountID] = acct
	return nil
}

func (r *fakeLedgerRepo) GetJournalWithLines(_ context.Context, entryID int64) (JournalEntry, []JournalLine, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return JournalEntry{}, nil, shared.ErrJournalNotFound
	}
	return entry, r.lines[entryID], nil
}

func (r *fakeLedgerRepo) MarkReversed(_ context.Context, originalID, reversalID int64) error {
	original, ok := r.entries[originalID]
	if !ok {
		return shared.ErrJournalNotFound
	}
	original.IsReversed = true
	original.ReversedByID = &reversalID
	r.entries[originalID] = original
	return nil
}

func newLedgerService() (*Service, *fakeLedgerRepo) {
	repo := newFakeLedgerRepo()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time {
		return time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	})
	return svc, repo
}

func depositPosting(amount string) PostingInput {
	return PostingInput{
		Date:        time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "Member deposit",
		SourceType:  "MEMBER_DEPOSIT",
		SourceID:    uuid.New(),
		PostedBy:    1,
		Lines: []PostingLineInput{
			{Account: accounts.ByCode("1000"), Debit: d(amount)},
			{Account: accounts.ByID(2), Credit: d(amount)},
		},
	}
}

func TestPostEntryBalancedPosting(t *testing.T) {
	svc, repo := newLedgerService()

	entry, err := svc.PostEntry(context.Background(), depositPosting("2500"))
	require.NoError(t, err)

	require.Equal(t, int64(1), entry.Number)
	require.Equal(t, JournalStatusPosted, entry.Status)
	require.True(t, entry.TotalDebit.Equal(d("2500")))
	require.True(t, entry.TotalCredit.Equal(d("2500")))
	require.Len(t, entry.Lines, 2)

	// Debit grows the debit-normal cash account, credit grows the
	// credit-normal deposits account.
	require.True(t, repo.accounts[1].CurrentBalance.Equal(d("2500")))
	require.True(t, repo.accounts[2].CurrentBalance.Equal(d("2500")))
}

func TestPostEntryRejectsUnbalanced(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("2500")
	input.Lines[1].Credit = d("2400")
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestPostEntryRejectsZeroTotal(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("0")
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrZeroAmount)
}

func TestPostEntryRejectsSingleLine(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("100")
	input.Lines = input.Lines[:1]
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrTooFewLines)
}

func TestPostEntryRejectsNegativeAmount(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("100")
	input.Lines[0].Debit = d("-100")
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrNegativeAmount)
}

func TestPostEntryRejectsInactiveAccount(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("100")
	input.Lines[0].Account = accounts.ByID(4)
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestPostEntryRejectsHeaderAccount(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("100")
	input.Lines[0].Account = accounts.ByID(5)
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrHeaderAccount)
}

func TestPostEntryRejectsUnknownAccount(t *testing.T) {
	svc, _ := newLedgerService()

	input := depositPosting("100")
	input.Lines[0].Account = accounts.ByCode("9999")
	_, err := svc.PostEntry(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestReverseEntryRestoresBalances(t *testing.T) {
	svc, repo := newLedgerService()
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, depositPosting("2500"))
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(ctx, ReverseInput{EntryID: entry.ID, ActorID: 2})
	require.NoError(t, err)

	require.True(t, repo.accounts[1].CurrentBalance.IsZero())
	require.True(t, repo.accounts[2].CurrentBalance.IsZero())

	// Lines swapped side for side.
	require.True(t, reversal.Lines[0].Credit.Equal(d("2500")))
	require.True(t, reversal.Lines[1].Debit.Equal(d("2500")))

	// Linked in both directions.
	require.NotNil(t, reversal.ReversalOfID)
	require.Equal(t, entry.ID, *reversal.ReversalOfID)
	original := repo.entries[entry.ID]
	require.True(t, original.IsReversed)
	require.NotNil(t, original.ReversedByID)
	require.Equal(t, reversal.ID, *original.ReversedByID)
	require.Equal(t, "MEMBER_DEPOSIT:REVERSAL", reversal.SourceType)
}

func TestReverseEntryTwiceFails(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, depositPosting("2500"))
	require.NoError(t, err)

	_, err = svc.ReverseEntry(ctx, ReverseInput{EntryID: entry.ID, ActorID: 2})
	require.NoError(t, err)
	_, err = svc.ReverseEntry(ctx, ReverseInput{EntryID: entry.ID, ActorID: 2})
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)
}

func TestReverseEntryUnknown(t *testing.T) {
	svc, _ := newLedgerService()

	_, err := svc.ReverseEntry(context.Background(), ReverseInput{EntryID: 42, ActorID: 2})
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
}

func TestReverseEntryDefaultMemo(t *testing.T) {
	svc, _ := newLedgerService()
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, depositPosting("100"))
	require.NoError(t, err)

	reversal, err := svc.ReverseEntry(ctx, ReverseInput{EntryID: entry.ID, ActorID: 2})
	require.NoError(t, err)
	require.Contains(t, reversal.Description, "Reversal of JE")
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}

func TestPostAndReverseInvalidateReportCache(t *testing.T) {
	svc, _ := newLedgerService()
	inv := &fakeInvalidator{}
	svc.WithCacheInvalidator(inv)
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, depositPosting("100"))
	require.NoError(t, err)
	require.Equal(t, 1, inv.calls)

	_, err = svc.ReverseEntry(ctx, ReverseInput{EntryID: entry.ID, ActorID: 2})
	require.NoError(t, err)
	require.Equal(t, 2, inv.calls)
}
