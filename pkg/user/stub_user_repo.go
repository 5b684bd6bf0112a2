package user

import (
	"context"
	"sync"
)

type StubUserRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[string]User
}

func NewStubUserRepository() *StubUserRepository {
	return &StubUserRepository{nextId: 0, data: map[string]User{}}
}

func (s *StubUserRepository) CreateUser(_ context.Context, user User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[user.Uid]; ok {
		return existing.Id, nil
	}
	s.nextId++
	user.Id = s.nextId
	s.data[user.Uid] = user
	return user.Id, nil
}

func (s *StubUserRepository) GetUserByUid(_ context.Context, uid string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.data[uid]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
