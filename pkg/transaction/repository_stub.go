package transaction

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// RepositoryStub keeps transactions in memory. Insert blocks while the stub is
// held, which lets tests observe the state between an optimistic insert and
// its confirmation. ListByUser blocks the same way while lists are held.
type RepositoryStub struct {
	mu        sync.Mutex
	nextId    int
	data      map[int][]Transaction
	insertErr error
	listErr   error
	gate      chan struct{}
	listGate  chan struct{}
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[int][]Transaction{}}
}

func (s *RepositoryStub) ListByUser(_ context.Context, userId int) ([]Transaction, error) {
	s.mu.Lock()
	gate := s.listGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	result := make([]Transaction, len(s.data[userId]))
	copy(result, s.data[userId])
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})
	return result, nil
}

func (s *RepositoryStub) Insert(_ context.Context, userId int, tx Transaction) (string, error) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return "", s.insertErr
	}
	s.nextId++
	tx.Id = strconv.Itoa(s.nextId)
	// newest first, so ties on OccurredAt keep insertion order reversed
	s.data[userId] = append([]Transaction{tx}, s.data[userId]...)
	return tx.Id, nil
}

func (s *RepositoryStub) FailInserts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
}

func (s *RepositoryStub) FailLists(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// Hold makes every following Insert wait until Release is called.
func (s *RepositoryStub) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
}

func (s *RepositoryStub) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

func (s *RepositoryStub) HoldLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listGate = make(chan struct{})
}

func (s *RepositoryStub) ReleaseLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listGate != nil {
		close(s.listGate)
		s.listGate = nil
	}
}

func (s *RepositoryStub) Stored(userId int) []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Transaction, len(s.data[userId]))
	copy(result, s.data[userId])
	return result
}

func (s *RepositoryStub) Seed(userId int, txs ...Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userId] = append(s.data[userId], txs...)
}
