package accountapp

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

type Login struct {
	Email    string
	Password string
}

// Login checks the password against the stored hash and issues a session token.
// Unverified users may log in.
func (m *Manager) Login(ctx context.Context, cmd Login) (res LoginResult) {
	ctx, span := m.tracer.Start(ctx, "Manager.Login",
		trace.WithAttributes(attribute.String("user.email", logging.RedactEmail(cmd.Email))))
	defer span.End()
	defer func() { m.record(ctx, "Login", res.Result) }()

	email := m.NormalizeEmail(cmd.Email)

	creds, err := m.users.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errorx.IsNotFound(err) {
			span.AddEvent("user not found")
			return LoginResult{Result: failed(KindUserNotFound)}
		}
		otelx.RecordSpanError(span, err, "failed to get user credentials")
		m.logger.ErrorContext(ctx, "failed to get user credentials", slog.Any("error", err))
		return LoginResult{Result: failed(KindLoginFailed)}
	}

	if !creds.Matches(cmd.Password, m.hasher) {
		span.AddEvent("password mismatch")
		return LoginResult{Result: failed(KindInvalidCredentials)}
	}

	if rh, ok := m.hasher.(Rehasher); ok && rh.NeedsRehash(creds.PassHash) {
		m.rehash(ctx, creds.ID, cmd.Password)
	}

	token, err := m.tokens.Issue(ctx, creds.ID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue token")
		m.logger.ErrorContext(ctx, "failed to issue token", slog.Any("error", err))
		return LoginResult{Result: failed(KindLoginFailed)}
	}

	span.SetAttributes(attribute.String("user.id", creds.ID.String()))
	return LoginResult{Result: succeeded(), Token: token}
}

// rehash upgrades a stored hash to the current cost. Failures are logged and do not fail the login.
func (m *Manager) rehash(ctx context.Context, id user.ID, password string) {
	ctx, span := m.tracer.Start(ctx, "Manager.rehash")
	defer span.End()

	err := m.users.UpdateUser(ctx, id, func(ctx context.Context, u *user.User) error {
		return u.RehashPassword(password, m.hasher)
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to rehash password")
		m.logger.WarnContext(ctx, "failed to rehash password", slog.String("user_id", id.String()), slog.Any("error", err))
		return
	}
	span.AddEvent("password rehashed")
}
