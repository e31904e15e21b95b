package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
)

type UserRepo struct {
	*EventRepo
	*Faults
	dbbyID    map[user.ID]*user.User
	dbbyEmail map[string]*user.User
	mu        sync.Mutex
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		EventRepo: NewEventRepo(),
		Faults:    NewFaults(),
		dbbyID:    make(map[user.ID]*user.User),
		dbbyEmail: make(map[string]*user.User),
	}
}

func (r *UserRepo) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	if err := r.Fault("ExistsUserByEmail"); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.dbbyEmail[email]
	return ok, nil
}

func (r *UserRepo) GetUserCredentialsByEmail(ctx context.Context, email string) (*user.Credentials, error) {
	if err := r.Fault("GetUserCredentialsByEmail"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.dbbyEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &user.Credentials{ID: u.ID(), PassHash: u.PassHash()}, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id user.ID) (*user.User, error) {
	if err := r.Fault("GetUserByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.dbbyID[id]; ok {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	if err := r.Fault("GetUserByEmail"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.dbbyEmail[email]; ok {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (r *UserRepo) SaveUser(ctx context.Context, u *user.User) error {
	if err := r.Fault("SaveUser"); err != nil {
		return err
	}
	if u == nil {
		return user.ErrNilUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dbbyEmail[u.Email()]; exists {
		return user.ErrEmailTaken
	}
	if _, exists := r.dbbyID[u.ID()]; exists {
		return errors.New("user id already exists")
	}

	r.put(u)
	r.appendEvents(u.GetUncommittedEvents()...)
	u.MarkEventsAsCommitted()
	return nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, id user.ID, fn func(ctx context.Context, u *user.User) error) error {
	if fn == nil {
		return errors.New("update function cannot be nil")
	}
	if err := r.Fault("UpdateUser"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.dbbyID[id]
	if !ok {
		return user.ErrNotFound
	}

	u := clone(stored)
	if err := fn(ctx, u); err != nil {
		return err
	}
	if other, taken := r.dbbyEmail[u.Email()]; taken && other.ID() != u.ID() {
		return user.ErrEmailTaken
	}

	delete(r.dbbyEmail, stored.Email())
	r.put(u)
	r.appendEvents(u.GetUncommittedEvents()...)
	u.MarkEventsAsCommitted()
	return nil
}

func (r *UserRepo) put(u *user.User) {
	c := clone(u)
	r.dbbyID[c.ID()] = c
	r.dbbyEmail[c.Email()] = c
}

func (r *UserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dbbyID)
}

func (r *UserRepo) SeedUser(t *testing.T, u *user.User) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dbbyID[u.ID()]; exists {
		t.Fatalf("user with ID %s already exists", u.ID())
	}
	if _, exists := r.dbbyEmail[u.Email()]; exists {
		t.Fatalf("user with email %s already exists", u.Email())
	}

	r.put(u)
}

func (r *UserRepo) AssertUserExistsByEmail(t *testing.T, email string) *user.Assertion {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.dbbyEmail[email]
	require.Truef(t, ok, "user with email %s should exist", email)
	return user.NewAssertion(clone(u))
}

func (r *UserRepo) AssertUserExistsByID(t *testing.T, id user.ID) *user.Assertion {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.dbbyID[id]
	require.Truef(t, ok, "user with id %s should exist", id)
	return user.NewAssertion(clone(u))
}

func (r *UserRepo) AssertUserNotExistsByEmail(t *testing.T, email string) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.dbbyEmail[email]
	require.Falsef(t, ok, "user with email %s should not exist", email)
}

func clone(u *user.User) *user.User {
	return user.Rehydrate(user.RehydrateArgs{
		ID:        u.ID(),
		Email:     u.Email(),
		PassHash:  append([]byte(nil), u.PassHash()...),
		Role:      u.Role(),
		Verified:  u.Verified(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	})
}
