package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/finbooks/ledger/internal/domain"
)

// NumberingAuthority issues sequential entry numbers per fiscal year.
// Number assignment is the moment an entry becomes legally significant, so
// concurrent posters in the same year are serialized through a per-year
// critical section; posters in different years never block each other.
// Gaps are acceptable (a number issued to a posting that later rolls back
// is simply skipped), duplicates are not.
type NumberingAuthority struct {
	seqRepo SequenceRepository

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewNumberingAuthority creates a NumberingAuthority backed by the given
// sequence repository.
func NewNumberingAuthority(seqRepo SequenceRepository) *NumberingAuthority {
	return &NumberingAuthority{
		seqRepo: seqRepo,
		locks:   make(map[int]*sync.Mutex),
	}
}

// NextNumber returns the next unused number for the fiscal year. Any
// failure of the backing counter surfaces as ErrNumberingUnavailable so the
// caller aborts the posting with no partial state.
func (a *NumberingAuthority) NextNumber(ctx context.Context, tx Transaction, fiscalYear int) (int, error) {
	lock := a.yearLock(fiscalYear)
	lock.Lock()
	defer lock.Unlock()

	n, err := a.seqRepo.NextNumber(ctx, tx, fiscalYear)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNumberingUnavailable, err)
	}

	if n <= 0 {
		return 0, fmt.Errorf("%w: counter returned %d", domain.ErrNumberingUnavailable, n)
	}

	return n, nil
}

func (a *NumberingAuthority) yearLock(fiscalYear int) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[fiscalYear]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[fiscalYear] = lock
	}

	return lock
}
