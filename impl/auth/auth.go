package auth

import (
	"fmt"
	"preacc/entity"
	"strings"
)

type Database interface {
	GetUser(token string) (*entity.User, error)
}

type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

// UserByToken resolves a bearer token; users without a company are rejected
// because every invoice operation is scoped by it.
func (a *Auth) UserByToken(token string) (*entity.User, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	user, err := a.db.GetUser(token)
	if err != nil {
		return nil, fmt.Errorf("user by token: %w", err)
	}
	if user.CompanyId == "" {
		return nil, fmt.Errorf("user %s has no company", user.Username)
	}
	return user, nil
}
