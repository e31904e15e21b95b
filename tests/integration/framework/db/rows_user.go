package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
)

// UserRow is the users table as stored, bypassing the repository mapping.
type UserRow struct {
	ID        string
	Email     string
	PassHash  []byte
	Role      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRowAssertion struct {
	row UserRow
	t   *testing.T
}

func (h *Helper) AssertUserRow(t *testing.T, email string) *UserRowAssertion {
	t.Helper()

	var row UserRow
	err := h.QueryOne(t, `
		SELECT id::text, email, pass_hash, role, verified, created_at, updated_at
		FROM users WHERE email = $1`, email,
	).Scan(&row.ID, &row.Email, &row.PassHash, &row.Role, &row.Verified, &row.CreatedAt, &row.UpdatedAt)
	require.NoError(t, err, "user row not found for email: %s", email)

	return &UserRowAssertion{row: row, t: t}
}

func (a *UserRowAssertion) HasRole(expected role.Role) *UserRowAssertion {
	a.t.Helper()
	assert.Equal(a.t, expected.String(), a.row.Role, "unexpected user role")
	return a
}

func (a *UserRowAssertion) IsVerified(expected bool) *UserRowAssertion {
	a.t.Helper()
	assert.Equal(a.t, expected, a.row.Verified, "unexpected verified flag")
	return a
}

func (a *UserRowAssertion) PasswordNotPlain(password string) *UserRowAssertion {
	a.t.Helper()
	assert.NotEqual(a.t, []byte(password), a.row.PassHash, "password stored in plaintext")
	assert.NotEmpty(a.t, a.row.PassHash)
	return a
}

func (a *UserRowAssertion) UpdatedAfterCreated() *UserRowAssertion {
	a.t.Helper()
	assert.False(a.t, a.row.UpdatedAt.Before(a.row.CreatedAt), "updated_at before created_at")
	return a
}

func (a *UserRowAssertion) ID() string {
	return a.row.ID
}
