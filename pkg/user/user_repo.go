package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not registered")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, display_name) VALUES ($1, $2)
				ON CONFLICT (uid) DO UPDATE SET uid = EXCLUDED.uid RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query, user.Uid, user.DisplayName).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, display_name FROM users WHERE uid = $1`
	var user User
	err := u.db.QueryRow(ctx, query, uid).Scan(&user.Id, &user.Uid, &user.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to get user: %w", err)
		log.Error(err)
		return User{}, err
	}
	return user, nil
}
