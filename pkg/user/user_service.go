package user

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidUid = errors.New("user uid must not be empty")

type Service interface {
	// Resolve returns the user with the given uid, registering it on first sight.
	Resolve(ctx context.Context, uid string) (User, error)
}

type ServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Resolve(ctx context.Context, uid string) (User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return User{}, ErrInvalidUid
	}
	u, err := s.repo.GetUserByUid(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	log.Debugf("registering user %s", uid)
	u = User{Uid: uid, DisplayName: uid}
	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return User{}, err
	}
	u.Id = id
	return u, nil
}
