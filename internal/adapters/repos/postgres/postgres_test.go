package postgres_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"gitlab.com/ucmsv2/accounts"
	"gitlab.com/ucmsv2/accounts/internal/adapters/repos/postgres"
	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/env"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	pgpkg "gitlab.com/ucmsv2/accounts/pkg/postgres"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
	"gitlab.com/ucmsv2/accounts/tests/integration/builders"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
)

type RepoSuite struct {
	suite.Suite

	pool          *pgxpool.Pool
	users         *postgres.UserRepo
	verifications *postgres.VerificationRepo
	tx            *postgres.Transactor
}

func TestRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("repository tests need docker")
	}
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupSuite() {
	testcontainers.SkipIfProviderIsNotHealthy(s.T())
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("accounts_repo_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(s.T(), container)
	s.Require().NoError(err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgpkg.NewPgxPool(ctx, connStr, env.Test)
	s.Require().NoError(err)
	s.Require().NoError(pgpkg.Migrate(connStr, accounts.Migrations, "migrations"))
	s.Require().NoError(watermillx.InitializeEventSchema(ctx, s.pool, watermillx.NewSlogAdapter(slog.Default(), slog.LevelWarn)))

	s.users = postgres.NewUserRepo(s.pool, nil, nil)
	s.verifications = postgres.NewVerificationRepo(s.pool, nil, nil)
	s.tx = postgres.NewTransactor(s.pool)
}

func (s *RepoSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *RepoSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE TABLE verifications, users CASCADE")
	s.Require().NoError(err)
}

func (s *RepoSuite) outboxCount(stream, name string) int {
	var count int
	err := s.pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM watermill_"+stream+" WHERE metadata->>'name' = $1", name,
	).Scan(&count)
	s.Require().NoError(err)
	return count
}

func (s *RepoSuite) registerUser(email string) *user.User {
	u, err := user.Register(user.RegisterArgs{
		ID:       user.NewID(),
		Email:    email,
		Password: fixtures.ValidPassword,
		Role:     role.Client,
	}, builders.Hasher)
	s.Require().NoError(err)
	s.Require().NoError(s.users.SaveUser(context.Background(), u))
	return u
}

func (s *RepoSuite) TestSaveUser_RoundTrip() {
	ctx := context.Background()
	before := s.outboxCount(user.EventStreamName, "user.AccountCreated")

	u := s.registerUser("roundtrip@test.com")
	assert.Empty(s.T(), u.GetUncommittedEvents(), "events must be marked committed")

	got, err := s.users.GetUserByID(ctx, u.ID())
	s.Require().NoError(err)
	user.NewAssertion(got).
		AssertID(s.T(), u.ID()).
		AssertEmail(s.T(), "roundtrip@test.com").
		AssertRole(s.T(), role.Client).
		AssertVerified(s.T(), false).
		AssertPassword(s.T(), builders.Hasher, fixtures.ValidPassword)
	s.WithinDuration(u.CreatedAt(), got.CreatedAt(), time.Millisecond)

	byEmail, err := s.users.GetUserByEmail(ctx, "roundtrip@test.com")
	s.Require().NoError(err)
	s.Equal(u.ID(), byEmail.ID())

	exists, err := s.users.ExistsUserByEmail(ctx, "roundtrip@test.com")
	s.Require().NoError(err)
	s.True(exists)

	creds, err := s.users.GetUserCredentialsByEmail(ctx, "roundtrip@test.com")
	s.Require().NoError(err)
	s.Equal(u.ID(), creds.ID)
	s.True(creds.Matches(fixtures.ValidPassword, builders.Hasher))

	s.Equal(before+1, s.outboxCount(user.EventStreamName, "user.AccountCreated"))
}

func (s *RepoSuite) TestSaveUser_DuplicateEmail() {
	s.registerUser(fixtures.ValidEmail)

	dup := builders.NewUserBuilder().WithEmail(fixtures.ValidEmail).Build()
	err := s.users.SaveUser(context.Background(), dup)
	s.Require().Error(err)
	s.True(errors.Is(err, user.ErrEmailTaken), "got %v", err)
}

func (s *RepoSuite) TestGetUser_NotFound() {
	ctx := context.Background()

	_, err := s.users.GetUserByID(ctx, user.NewID())
	s.True(errorx.IsNotFound(err), "got %v", err)

	_, err = s.users.GetUserByEmail(ctx, "missing@test.com")
	s.True(errors.Is(err, user.ErrNotFound), "got %v", err)

	_, err = s.users.GetUserCredentialsByEmail(ctx, "missing@test.com")
	s.True(errors.Is(err, user.ErrNotFound), "got %v", err)

	exists, err := s.users.ExistsUserByEmail(ctx, "missing@test.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepoSuite) TestUpdateUser() {
	ctx := context.Background()
	u := s.registerUser("update@test.com")

	s.Run("applies changes and publishes events", func() {
		before := s.outboxCount(user.EventStreamName, "user.EmailChanged")
		err := s.users.UpdateUser(ctx, u.ID(), func(_ context.Context, u *user.User) error {
			_, err := u.ChangeEmail("updated@test.com")
			return err
		})
		s.Require().NoError(err)

		got, err := s.users.GetUserByID(ctx, u.ID())
		s.Require().NoError(err)
		s.Equal("updated@test.com", got.Email())
		s.Equal(before+1, s.outboxCount(user.EventStreamName, "user.EmailChanged"))
	})

	s.Run("fn error writes nothing", func() {
		boom := errors.New("boom")
		err := s.users.UpdateUser(ctx, u.ID(), func(_ context.Context, u *user.User) error {
			_, _ = u.ChangeEmail("ignored@test.com")
			return boom
		})
		s.ErrorIs(err, boom)

		got, err := s.users.GetUserByID(ctx, u.ID())
		s.Require().NoError(err)
		s.Equal("updated@test.com", got.Email())
	})

	s.Run("email collision", func() {
		s.registerUser("other@test.com")
		err := s.users.UpdateUser(ctx, u.ID(), func(_ context.Context, u *user.User) error {
			_, err := u.ChangeEmail("other@test.com")
			return err
		})
		s.True(errors.Is(err, user.ErrEmailTaken), "got %v", err)
	})

	s.Run("missing user", func() {
		err := s.users.UpdateUser(ctx, user.NewID(), func(context.Context, *user.User) error { return nil })
		s.True(errorx.IsNotFound(err), "got %v", err)
	})

	s.Run("nil fn", func() {
		s.ErrorIs(s.users.UpdateUser(ctx, u.ID(), nil), postgres.ErrNilFunc)
	})
}

func (s *RepoSuite) TestVerifications() {
	ctx := context.Background()
	u := s.registerUser("verify@test.com")

	v, err := verification.New(u.ID())
	s.Require().NoError(err)
	s.Require().NoError(s.verifications.SaveVerification(ctx, v))

	byCode, err := s.verifications.GetVerificationByCode(ctx, v.Code())
	s.Require().NoError(err)
	s.Equal(v.ID(), byCode.ID())
	s.Equal(u.ID(), byCode.UserID())

	byUser, err := s.verifications.GetVerificationByUserID(ctx, u.ID())
	s.Require().NoError(err)
	s.Equal(v.Code(), byUser.Code())

	s.Run("one record per user", func() {
		second, err := verification.New(u.ID())
		s.Require().NoError(err)
		err = s.verifications.SaveVerification(ctx, second)
		s.True(errorx.IsDuplicateEntry(err), "got %v", err)
	})

	s.Run("delete is single use", func() {
		s.Require().NoError(s.verifications.DeleteVerification(ctx, v.ID()))
		err := s.verifications.DeleteVerification(ctx, v.ID())
		s.True(errors.Is(err, verification.ErrNotFound), "got %v", err)

		_, err = s.verifications.GetVerificationByCode(ctx, v.Code())
		s.True(errors.Is(err, verification.ErrNotFound), "got %v", err)
	})

	s.Run("delete by user", func() {
		fresh, err := verification.New(u.ID())
		s.Require().NoError(err)
		s.Require().NoError(s.verifications.SaveVerification(ctx, fresh))

		s.Require().NoError(s.verifications.DeleteVerificationsByUserID(ctx, u.ID()))
		s.Require().NoError(s.verifications.DeleteVerificationsByUserID(ctx, u.ID()))

		_, err = s.verifications.GetVerificationByUserID(ctx, u.ID())
		s.True(errors.Is(err, verification.ErrNotFound), "got %v", err)
	})

	s.Run("unknown user", func() {
		orphan := builders.NewVerificationBuilder().WithUserID(user.NewID()).WithCode(fixtures.UnknownCode).Build()
		s.Error(s.verifications.SaveVerification(ctx, orphan))
	})
}

func (s *RepoSuite) TestTransactor() {
	ctx := context.Background()

	s.Run("rollback discards every write", func() {
		boom := errors.New("boom")
		var id user.ID
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			u, err := user.Register(user.RegisterArgs{
				ID:       user.NewID(),
				Email:    "rollback@test.com",
				Password: fixtures.ValidPassword,
				Role:     role.Owner,
			}, builders.Hasher)
			if err != nil {
				return err
			}
			id = u.ID()
			if err := s.users.SaveUser(ctx, u); err != nil {
				return err
			}
			v, err := verification.New(u.ID())
			if err != nil {
				return err
			}
			if err := s.verifications.SaveVerification(ctx, v); err != nil {
				return err
			}
			return boom
		})
		s.ErrorIs(err, boom)

		exists, err := s.users.ExistsUserByEmail(ctx, "rollback@test.com")
		s.Require().NoError(err)
		s.False(exists)
		_, err = s.verifications.GetVerificationByUserID(ctx, id)
		s.True(errors.Is(err, verification.ErrNotFound), "got %v", err)
	})

	s.Run("commit keeps every write", func() {
		var id user.ID
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			u, err := user.Register(user.RegisterArgs{
				ID:       user.NewID(),
				Email:    "commit@test.com",
				Password: fixtures.ValidPassword,
				Role:     role.Owner,
			}, builders.Hasher)
			if err != nil {
				return err
			}
			id = u.ID()
			if err := s.users.SaveUser(ctx, u); err != nil {
				return err
			}
			v, err := verification.New(u.ID())
			if err != nil {
				return err
			}
			return s.verifications.SaveVerification(ctx, v)
		})
		s.Require().NoError(err)

		_, err = s.verifications.GetVerificationByUserID(ctx, id)
		require.NoError(s.T(), err)
	})
}
