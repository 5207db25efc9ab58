package accounts

import (
	"context"
	"fmt"

	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
)

// Service owns account definitions and the type to normal-balance mapping.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Seed creates every default chart account whose code is absent and returns
// the number created. Safe to run repeatedly.
func (s *Service) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, seed := range DefaultChart {
		ok, err := s.repo.InsertIfAbsent(ctx, seed)
		if err != nil {
			return created, fmt.Errorf("seed account %s: %w", seed.Code, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// Resolve finds the account addressed by ref.
func (s *Service) Resolve(ctx context.Context, ref Ref) (Account, error) {
	switch {
	case ref.ID() != 0:
		return s.repo.GetByID(ctx, ref.ID())
	case ref.Code() != "":
		return s.repo.GetByCode(ctx, ref.Code())
	default:
		return Account{}, shared.ErrAccountNotFound
	}
}

// ResolveRole maps a posting role to its chart account.
func (s *Service) ResolveRole(ctx context.Context, role Role) (Account, error) {
	code, ok := DefaultRoleCodes[role]
	if !ok {
		return Account{}, shared.ErrRoleNotMapped
	}
	acc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Account{}, fmt.Errorf("resolve role %s: %w", role, err)
	}
	return acc, nil
}

// List returns the full chart ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Deactivate soft-disables an account. Accounts are never deleted.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}
