package framework

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"gitlab.com/ucmsv2/accounts"
	"gitlab.com/ucmsv2/accounts/internal/adapters/notifier"
	"gitlab.com/ucmsv2/accounts/internal/adapters/repos/postgres"
	accountapp "gitlab.com/ucmsv2/accounts/internal/application/account"
	authapp "gitlab.com/ucmsv2/accounts/internal/application/auth"
	"gitlab.com/ucmsv2/accounts/internal/application/mail"
	httpport "gitlab.com/ucmsv2/accounts/internal/ports/http"
	watermillport "gitlab.com/ucmsv2/accounts/internal/ports/watermill"
	"gitlab.com/ucmsv2/accounts/pkg/env"
	pgpkg "gitlab.com/ucmsv2/accounts/pkg/postgres"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
	"gitlab.com/ucmsv2/accounts/tests/integration/builders"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
	dbhelper "gitlab.com/ucmsv2/accounts/tests/integration/framework/db"
	eventhelper "gitlab.com/ucmsv2/accounts/tests/integration/framework/event"
	httphelper "gitlab.com/ucmsv2/accounts/tests/integration/framework/http"
	"gitlab.com/ucmsv2/accounts/tests/mocks"
)

const verifyBaseURL = "http://accounts.test/v1/accounts/verify"

// IntegrationTestSuite runs the whole service against a real postgres:
// repositories, the outbox, the mail consumer and the HTTP API. Only the
// final mail delivery is mocked.
type IntegrationTestSuite struct {
	suite.Suite

	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	router    *message.Router

	Manager *accountapp.Manager
	Tokens  *authapp.TokenIssuer
	Users   *postgres.UserRepo

	HTTP *httphelper.Helper
	DB   *dbhelper.Helper
	// Event reads the outbox tables directly.
	Event *eventhelper.Helper
	Mail  *mocks.MockMailSender
}

func (s *IntegrationTestSuite) SetupSuite() {
	testcontainers.SkipIfProviderIsNotHealthy(s.T())
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("accounts_test"),
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
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgpkg.NewPgxPool(ctx, connStr, env.Test)
	s.Require().NoError(err)

	err = pgpkg.Migrate(connStr, accounts.Migrations, "migrations")
	s.Require().NoError(err)

	wmlogger := watermillx.NewSlogAdapter(slog.Default(), slog.LevelWarn)
	s.Require().NoError(watermillx.InitializeEventSchema(ctx, s.pool, wmlogger))

	s.Mail = mocks.NewMockMailSender()
	mailApp := mail.NewApp(mail.Args{
		Mailsender:    s.Mail,
		VerifyBaseURL: verifyBaseURL,
	})

	bus, err := watermillx.NewEventBus(s.pool, wmlogger)
	s.Require().NoError(err)

	s.Tokens, err = authapp.NewTokenIssuer(authapp.Args{Secret: fixtures.TestTokenSecret})
	s.Require().NoError(err)

	s.Users = postgres.NewUserRepo(s.pool, nil, nil)
	verifications := postgres.NewVerificationRepo(s.pool, nil, nil)

	s.Manager = accountapp.NewManager(accountapp.Args{
		Users:         s.Users,
		Verifications: verifications,
		Tx:            postgres.NewTransactor(s.pool),
		Hasher:        builders.Hasher,
		Tokens:        s.Tokens,
		Notifier:      notifier.NewOutbox(notifier.OutboxArgs{Bus: bus}),
	})

	s.router, err = message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, wmlogger)
	s.Require().NoError(err)
	port, err := watermillport.NewPortForTest(s.router, s.pool, wmlogger)
	s.Require().NoError(err)
	s.Require().NoError(port.Register(watermillport.AppEventHandlers{Mail: mailApp.Event}))

	go func() {
		if err := s.router.Run(context.Background()); err != nil {
			s.T().Logf("event router stopped: %v", err)
		}
	}()
	<-s.router.Running()

	handler := httpport.NewPort(httpport.Args{
		Manager: s.Manager,
		Tokens:  s.Tokens,
		Mode:    env.Test,
	}).Route(nil)

	s.HTTP = httphelper.NewHelper(handler)
	s.DB = dbhelper.NewHelper(dbhelper.Args{
		Pool:          s.pool,
		Users:         s.Users,
		Verifications: verifications,
	})
	s.Event = eventhelper.NewHelper(s.pool)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.router != nil {
		s.Require().NoError(s.router.Close())
	}
	if s.Manager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Manager.Wait(ctx)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	s.DB.TruncateAll(s.T())
	s.Mail.Reset()
	s.Mail.Clear()
}

// WaitForMail blocks until the mail consumer has delivered a mail to email
// and returns its body.
func (s *IntegrationTestSuite) WaitForMail(email string) string {
	s.T().Helper()

	var body string
	s.Require().Eventually(func() bool {
		for _, m := range s.Mail.GetSentMails() {
			if m.To == email {
				body = m.Body
				return true
			}
		}
		return false
	}, eventhelper.DefaultTimeout, 20*time.Millisecond, "no mail delivered to %s", email)

	return body
}
