package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inamate/geoscene/internal/db/dbgen"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]dbgen.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]dbgen.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, arg dbgen.CreateUserParams) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == arg.Email {
			return dbgen.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := dbgen.User{
		ID:          arg.ID,
		Email:       arg.Email,
		Password:    arg.Password,
		DisplayName: arg.DisplayName,
		CreatedAt:   time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dbgen.User{}, pgx.ErrNoRows
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (dbgen.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return dbgen.User{}, pgx.ErrNoRows
	}
	return u, nil
}
