package accountapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

type CreateAccount struct {
	Email    string
	Password string
	Role     role.Role
}

// CreateAccount registers an unverified user together with its verification
// record and then sends the code to the new address.
func (m *Manager) CreateAccount(ctx context.Context, cmd CreateAccount) (res CreateAccountResult) {
	ctx, span := m.tracer.Start(ctx, "Manager.CreateAccount",
		trace.WithAttributes(
			attribute.String("user.email", logging.RedactEmail(cmd.Email)),
			attribute.String("user.role", cmd.Role.String()),
		))
	defer span.End()
	defer func() { m.record(ctx, "CreateAccount", res.Result) }()

	email := m.NormalizeEmail(cmd.Email)

	exists, err := m.users.ExistsUserByEmail(ctx, email)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to check email availability")
		m.logger.ErrorContext(ctx, "failed to check email availability", slog.Any("error", err))
		return CreateAccountResult{Result: failed(KindAccountCreationFailed)}
	}
	if exists {
		span.AddEvent("email already taken")
		return CreateAccountResult{Result: failed(KindDuplicateEmail)}
	}

	u, err := user.Register(user.RegisterArgs{
		ID:       user.NewID(),
		Email:    email,
		Password: cmd.Password,
		Role:     cmd.Role,
	}, m.hasher)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			otelx.RecordSpanError(span, err, "invalid account input")
			return CreateAccountResult{Result: invalidInput(err)}
		}
		otelx.RecordSpanError(span, err, "failed to register user")
		m.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
		return CreateAccountResult{Result: failed(KindAccountCreationFailed)}
	}

	v, err := verification.New(u.ID())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue verification")
		m.logger.ErrorContext(ctx, "failed to issue verification", slog.Any("error", err))
		return CreateAccountResult{Result: failed(KindAccountCreationFailed)}
	}

	err = m.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := m.users.SaveUser(ctx, u); err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				return errDuplicateEmail
			}
			return err
		}
		return m.verifications.SaveVerification(ctx, v)
	})
	switch {
	case errors.Is(err, errDuplicateEmail):
		span.AddEvent("email taken by a concurrent registration")
		return CreateAccountResult{Result: failed(KindDuplicateEmail)}
	case err != nil:
		otelx.RecordSpanError(span, err, "failed to persist account")
		m.logger.ErrorContext(ctx, "failed to persist account", slog.Any("error", err))
		return CreateAccountResult{Result: failed(KindAccountCreationFailed)}
	}

	span.SetAttributes(attribute.String("user.id", u.ID().String()))
	m.logger.InfoContext(ctx, "account created",
		slog.String("user_id", u.ID().String()),
		slog.String("email", logging.RedactEmail(email)),
	)

	m.notify(ctx, email, v.Code())

	return CreateAccountResult{Result: succeeded(), UserID: u.ID()}
}
