package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// MetricsPort observes report build durations.
type MetricsPort interface {
	ObserveReportBuild(report string, d time.Duration)
}

// Service produces the ledger reports. Builds are deduplicated through a
// singleflight group and cached for a short TTL.
type Service struct {
	repo    Repository
	cache   *Cache
	metrics MetricsPort
	group   singleflight.Group
	now     func() time.Time
}

func NewService(repo Repository, cache *Cache, metrics MetricsPort) *Service {
	return &Service{repo: repo, cache: cache, metrics: metrics, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) observe(report string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveReportBuild(report, time.Since(start))
	}
}

// TrialBalance nets every account as of the date and verifies debit=credit.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	key := fmt.Sprintf("tb:%s", asOf.Format("2006-01-02"))
	var cached TrialBalance
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		start := s.now()
		balances, err := s.repo.AccountTotals(ctx, nil, asOf)
		if err != nil {
			return TrialBalance{}, err
		}
		tb := BuildTrialBalance(asOf, balances)
		s.observe("trial_balance", start)
		_ = s.cache.Set(ctx, key, tb)
		return tb, nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return result.(TrialBalance), nil
}

// IncomeStatement nets income and expense accounts over the range.
func (s *Service) IncomeStatement(ctx context.Context, start, end time.Time) (IncomeStatement, error) {
	key := fmt.Sprintf("pl:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	var cached IncomeStatement
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		buildStart := s.now()
		balances, err := s.repo.AccountTotals(ctx, &start, end)
		if err != nil {
			return IncomeStatement{}, err
		}
		pl := BuildIncomeStatement(start, end, balances)
		s.observe("income_statement", buildStart)
		_ = s.cache.Set(ctx, key, pl)
		return pl, nil
	})
	if err != nil {
		return IncomeStatement{}, err
	}
	return result.(IncomeStatement), nil
}

// BalanceSheet nets assets, liabilities, and equity as of the date, with
// retained earnings injected from the income statement since the start of
// the year.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	key := fmt.Sprintf("bs:%s", asOf.Format("2006-01-02"))
	var cached BalanceSheet
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		start := s.now()
		balances, err := s.repo.AccountTotals(ctx, nil, asOf)
		if err != nil {
			return BalanceSheet{}, err
		}
		yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location())
		pl, err := s.IncomeStatement(ctx, yearStart, asOf)
		if err != nil {
			return BalanceSheet{}, err
		}
		bs := BuildBalanceSheet(asOf, balances, pl.NetIncome)
		s.observe("balance_sheet", start)
		_ = s.cache.Set(ctx, key, bs)
		return bs, nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	return result.(BalanceSheet), nil
}

// AccountLedger returns the statement for one account: opening balance from
// postings before the range, then a chronological running balance.
func (s *Service) AccountLedger(ctx context.Context, accountID int64, from, to *time.Time) (AccountLedger, error) {
	start := s.now()
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return AccountLedger{}, err
	}
	opening := decimal.Zero
	if from != nil {
		opening, err = s.repo.OpeningNet(ctx, accountID, *from)
		if err != nil {
			return AccountLedger{}, err
		}
	}
	postings, err := s.repo.AccountPostings(ctx, accountID, from, to)
	if err != nil {
		return AccountLedger{}, err
	}
	ledger := BuildAccountLedger(acc, opening, postings)
	s.observe("account_ledger", start)
	return ledger, nil
}
