package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	users "github.com/bracketiq/bracketiq/internal/user"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery    = "SELECT * FROM users WHERE id = ?"
	createUserQuery = `
		INSERT INTO users (id, username) VALUES
		(:id, :username)
	`
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id interface{}) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}
