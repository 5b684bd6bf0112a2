package settings

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	mu        sync.Mutex
	data      map[int]Stored
	getErr    error
	upsertErr error
	upserts   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[int]Stored{}}
}

func (s *RepositoryStub) Get(_ context.Context, userId int) (Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Stored{}, s.getErr
	}
	stored, ok := s.data[userId]
	if !ok {
		return Stored{}, ErrSettingsNotFound
	}
	return stored, nil
}

func (s *RepositoryStub) UpsertLedgerName(_ context.Context, userId int, name string) error {
	return s.update(userId, func(stored *Stored) { stored.LedgerName = &name })
}

func (s *RepositoryStub) UpsertFamilyMembers(_ context.Context, userId int, members []string) error {
	copied := append([]string(nil), members...)
	return s.update(userId, func(stored *Stored) { stored.FamilyMembers = copied })
}

func (s *RepositoryStub) UpsertBudgetLimit(_ context.Context, userId int, limit decimal.Decimal) error {
	return s.update(userId, func(stored *Stored) { stored.BudgetLimit = &limit })
}

func (s *RepositoryStub) update(userId int, apply func(*Stored)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	stored := s.data[userId]
	apply(&stored)
	s.data[userId] = stored
	return nil
}

func (s *RepositoryStub) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *RepositoryStub) FailUpserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertErr = err
}

// Upserts counts write attempts, failed ones included.
func (s *RepositoryStub) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}
