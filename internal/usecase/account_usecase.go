package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finbooks/ledger/internal/domain"
)

const accountCacheTTL = 5 * time.Minute

// AccountUseCase handles chart-of-accounts business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	cache       Cache
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase. The cache is optional.
func NewAccountUseCase(accountRepo AccountRepository, cache Cache, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		cache:       cache,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code string
	Name string
	Type domain.AccountType
}

// CreateAccount creates a new active account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Code:      input.Code,
		Name:      input.Name,
		Type:      input.Type,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if existing, err := uc.accountRepo.GetByCode(ctx, input.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCode, input.Code)
	} else if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID, through the cache when available.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, accountCacheKey(id)); err == nil && data != nil {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			_ = uc.cache.Set(ctx, accountCacheKey(id), data, accountCacheTTL)
		}
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists chart-of-accounts entries.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

// DeactivateAccount marks an account inactive. Existing lines keep their
// reference; new lines against it are rejected at draft time.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, id string) error {
	if _, err := uc.accountRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := uc.accountRepo.SetActive(ctx, id, false, time.Now().UTC()); err != nil {
		return err
	}

	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, accountCacheKey(id))
	}

	return nil
}

func accountCacheKey(id string) string {
	return "account:" + id
}
