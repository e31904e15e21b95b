package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/domain/event"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
)

type Assertion struct {
	user   *User
	events []event.Event
}

func NewAssertion(u *User) *Assertion {
	return &Assertion{user: u, events: u.GetUncommittedEvents()}
}

func (a *Assertion) AssertID(t *testing.T, expected ID) *Assertion {
	t.Helper()
	assert.Equal(t, expected, a.user.ID(), "ID mismatch")
	return a
}

func (a *Assertion) AssertEmail(t *testing.T, expected string) *Assertion {
	t.Helper()
	assert.Equal(t, expected, a.user.Email(), "Email mismatch")
	return a
}

func (a *Assertion) AssertRole(t *testing.T, expected role.Role) *Assertion {
	t.Helper()
	assert.Equal(t, expected, a.user.Role(), "Role mismatch")
	return a
}

func (a *Assertion) AssertVerified(t *testing.T, expected bool) *Assertion {
	t.Helper()
	assert.Equal(t, expected, a.user.Verified(), "Verified mismatch")
	return a
}

func (a *Assertion) AssertPassword(t *testing.T, hasher PasswordHasher, password string) *Assertion {
	t.Helper()
	assert.NotEqual(t, []byte(password), a.user.PassHash(), "password must not be stored in plaintext")
	assert.True(t, a.user.ComparePassword(password, hasher), "PassHash does not match password")
	return a
}

func (a *Assertion) AssertEventCount(t *testing.T, expected int) *Assertion {
	t.Helper()
	require.Len(t, a.events, expected, "uncommitted events count mismatch")
	return a
}

func (a *Assertion) AssertAccountCreated(t *testing.T) *Assertion {
	t.Helper()
	e := findEvent[*AccountCreated](t, a.events)
	assert.Equal(t, a.user.ID(), e.UserID)
	assert.Equal(t, a.user.Email(), e.Email)
	assert.Equal(t, a.user.Role(), e.Role)
	return a
}

func (a *Assertion) AssertEmailChanged(t *testing.T, oldEmail, newEmail string) *Assertion {
	t.Helper()
	e := findEvent[*EmailChanged](t, a.events)
	assert.Equal(t, a.user.ID(), e.UserID)
	assert.Equal(t, oldEmail, e.OldEmail)
	assert.Equal(t, newEmail, e.NewEmail)
	return a
}

func (a *Assertion) AssertEmailVerified(t *testing.T) *Assertion {
	t.Helper()
	e := findEvent[*EmailVerified](t, a.events)
	assert.Equal(t, a.user.ID(), e.UserID)
	assert.Equal(t, a.user.Email(), e.Email)
	return a
}

func findEvent[T event.Event](t *testing.T, events []event.Event) T {
	t.Helper()
	for _, e := range events {
		if typed, ok := e.(T); ok {
			return typed
		}
	}
	var zero T
	require.Failf(t, "event not found", "expected event of type %T among %d events", zero, len(events))
	return zero
}
