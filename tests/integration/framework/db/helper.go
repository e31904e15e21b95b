package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/internal/adapters/repos/postgres"
	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
)

type Helper struct {
	pool          *pgxpool.Pool
	users         *postgres.UserRepo
	verifications *postgres.VerificationRepo
}

type Args struct {
	Pool          *pgxpool.Pool
	Users         *postgres.UserRepo
	Verifications *postgres.VerificationRepo
}

func NewHelper(args Args) *Helper {
	if args.Pool == nil {
		panic("pgxpool.Pool is required")
	}
	if args.Users == nil {
		args.Users = postgres.NewUserRepo(args.Pool, nil, nil)
	}
	if args.Verifications == nil {
		args.Verifications = postgres.NewVerificationRepo(args.Pool, nil, nil)
	}

	return &Helper{
		pool:          args.Pool,
		users:         args.Users,
		verifications: args.Verifications,
	}
}

func (h *Helper) QueryOne(t *testing.T, query string, args ...any) pgx.Row {
	t.Helper()
	return h.pool.QueryRow(context.Background(), query, args...)
}

func (h *Helper) Exec(t *testing.T, query string, args ...any) pgconn.CommandTag {
	t.Helper()

	tag, err := h.pool.Exec(context.Background(), query, args...)
	require.NoError(t, err)

	return tag
}

// TruncateAll empties the account tables. Outbox tables are left alone so
// consumer offsets stay consistent.
func (h *Helper) TruncateAll(t *testing.T) {
	t.Helper()
	h.Exec(t, "TRUNCATE TABLE verifications, users CASCADE")
}

func (h *Helper) RequireUserExists(t *testing.T, email string) *user.Assertion {
	t.Helper()

	u, err := h.users.GetUserByEmail(t.Context(), email)
	require.NoError(t, err, "user not found for email: %s", email)

	return user.NewAssertion(u)
}

func (h *Helper) RequireUserNotExists(t *testing.T, email string) {
	t.Helper()

	var count int
	err := h.QueryOne(t, "SELECT COUNT(*) FROM users WHERE email = $1", email).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "expected no user for email %s", email)
}

func (h *Helper) RequireUserCount(t *testing.T, expected int) {
	t.Helper()

	var count int
	err := h.QueryOne(t, "SELECT COUNT(*) FROM users").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected user count")
}

func (h *Helper) RequireVerificationForUser(t *testing.T, id user.ID) *verification.Verification {
	t.Helper()

	v, err := h.verifications.GetVerificationByUserID(t.Context(), id)
	require.NoError(t, err, "verification not found for user: %s", id)

	return v
}

func (h *Helper) RequireNoVerificationForUser(t *testing.T, id user.ID) {
	t.Helper()

	var count int
	err := h.QueryOne(t, "SELECT COUNT(*) FROM verifications WHERE user_id = $1", id.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "expected no verification for user %s", id)
}
