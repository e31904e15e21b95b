package accountapp

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
	"gitlab.com/ucmsv2/accounts/pkg/sanitizex"
)

type VerifyEmail struct {
	Code string
}

// VerifyEmail consumes the code and marks its owner verified. The record is
// deleted before the user is touched so two concurrent calls with the same
// code cannot both succeed.
func (m *Manager) VerifyEmail(ctx context.Context, cmd VerifyEmail) (res Result) {
	ctx, span := m.tracer.Start(ctx, "Manager.VerifyEmail",
		trace.WithAttributes(attribute.String("verification.code", logging.RedactSecret(cmd.Code))))
	defer span.End()
	defer func() { m.record(ctx, "VerifyEmail", res) }()

	code := sanitizex.CleanToken(cmd.Code)
	if code == "" {
		span.AddEvent("empty code")
		return failed(KindVerificationNotFound)
	}

	var userID user.ID
	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		v, err := m.verifications.GetVerificationByCode(ctx, code)
		if err != nil {
			return err
		}
		userID = v.UserID()

		if err := m.verifications.DeleteVerification(ctx, v.ID()); err != nil {
			return err
		}

		return m.users.UpdateUser(ctx, v.UserID(), func(ctx context.Context, u *user.User) error {
			return u.MarkVerified()
		})
	})
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			span.AddEvent("verification not found")
			return failed(KindVerificationNotFound)
		}
		otelx.RecordSpanError(span, err, "failed to verify email")
		m.logger.ErrorContext(ctx, "failed to verify email", slog.Any("error", err))
		return failed(KindVerificationFailed)
	}

	m.logger.InfoContext(ctx, "email verified", slog.String("user_id", userID.String()))
	return succeeded()
}
