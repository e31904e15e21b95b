package accountapp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/sanitizex"
)

const DefaultNotifyTimeout = 10 * time.Second

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/application/account")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/application/account")
	meter  = otel.Meter("ucmsv2/accounts/internal/application/account")
)

type UserRepo interface {
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (*user.Credentials, error)
	GetUserByID(ctx context.Context, id user.ID) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	SaveUser(ctx context.Context, u *user.User) error
	UpdateUser(ctx context.Context, id user.ID, fn func(ctx context.Context, u *user.User) error) error
}

type VerificationRepo interface {
	SaveVerification(ctx context.Context, v *verification.Verification) error
	GetVerificationByCode(ctx context.Context, code string) (*verification.Verification, error)
	GetVerificationByUserID(ctx context.Context, userID user.ID) (*verification.Verification, error)
	DeleteVerificationsByUserID(ctx context.Context, userID user.ID) error
	// DeleteVerification reports verification.ErrNotFound when no row was deleted.
	DeleteVerification(ctx context.Context, id verification.ID) error
}

// Transactor runs fn in one database transaction shared by every repository call made with the ctx it receives.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Rehasher is implemented by hashers whose work factor can change between deployments.
type Rehasher interface {
	NeedsRehash(hashed []byte) bool
}

type TokenIssuer interface {
	Issue(ctx context.Context, userID user.ID) (string, error)
}

type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, code string) error
}

// Manager implements the account use cases. It keeps no per-request state.
type Manager struct {
	tracer        trace.Tracer
	logger        *slog.Logger
	users         UserRepo
	verifications VerificationRepo
	tx            Transactor
	hasher        user.PasswordHasher
	tokens        TokenIssuer
	notifier      Notifier
	notifyTimeout time.Duration
	caseSensitive bool
	outcomes      metric.Int64Counter

	inflight sync.WaitGroup
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger

	Users         UserRepo
	Verifications VerificationRepo
	Tx            Transactor
	Hasher        user.PasswordHasher
	Tokens        TokenIssuer
	Notifier      Notifier

	// NotifyTimeout bounds each notification. Zero means DefaultNotifyTimeout.
	NotifyTimeout time.Duration
	// EmailCaseSensitive keeps addresses as typed. When false they are lower-cased before lookup and storage.
	EmailCaseSensitive bool
}

func NewManager(args Args) *Manager {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.NotifyTimeout <= 0 {
		args.NotifyTimeout = DefaultNotifyTimeout
	}
	if args.Users == nil || args.Verifications == nil || args.Tx == nil {
		panic("accountapp: repositories and transactor are required")
	}
	if args.Hasher == nil || args.Tokens == nil || args.Notifier == nil {
		panic("accountapp: hasher, token issuer and notifier are required")
	}

	outcomes, err := meter.Int64Counter(
		"accounts.usecase.outcomes",
		metric.WithDescription("Account use case outcomes by use case and error kind"),
	)
	if err != nil {
		args.Logger.Warn("failed to create outcomes counter", slog.Any("error", err))
	}

	return &Manager{
		tracer:        args.Tracer,
		logger:        args.Logger,
		users:         args.Users,
		verifications: args.Verifications,
		tx:            args.Tx,
		hasher:        args.Hasher,
		tokens:        args.Tokens,
		notifier:      args.Notifier,
		notifyTimeout: args.NotifyTimeout,
		caseSensitive: args.EmailCaseSensitive,
		outcomes:      outcomes,
	}
}

// NormalizeEmail applies the configured case policy.
func (m *Manager) NormalizeEmail(email string) string {
	email = sanitizex.CleanEmail(email)
	if !m.caseSensitive {
		email = strings.ToLower(email)
	}
	return email
}

// Wait blocks until every dispatched notification has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify hands the code to the notifier on its own goroutine. The caller's
// result never depends on it; failures are only logged.
func (m *Manager) notify(ctx context.Context, email, code string) {
	link := trace.LinkFromContext(ctx)
	m.inflight.Add(1)

	go func() {
		defer m.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
		defer cancel()

		ctx, span := m.tracer.Start(ctx, "Manager.notify",
			trace.WithLinks(link),
			trace.WithAttributes(attribute.String("user.email", logging.RedactEmail(email))),
		)
		defer span.End()

		if err := m.notifier.SendVerificationEmail(ctx, email, code); err != nil {
			span.RecordError(err)
			m.logger.ErrorContext(ctx, "failed to send verification email",
				slog.String("email", logging.RedactEmail(email)),
				slog.Any("error", err),
			)
			return
		}
		m.logger.DebugContext(ctx, "verification email dispatched", slog.String("email", logging.RedactEmail(email)))
	}()
}

func (m *Manager) record(ctx context.Context, usecase string, r Result) {
	if m.outcomes == nil {
		return
	}
	outcome := "ok"
	if !r.OK {
		outcome = r.Error.String()
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("usecase", usecase),
		attribute.String("outcome", outcome),
	))
}

// errDuplicateEmail is returned from transactions to roll back on a unique violation.
var errDuplicateEmail = errors.New("email already taken")
