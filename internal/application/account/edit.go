package accountapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

// EditProfile carries the fields to change. Nil fields are left as they are.
type EditProfile struct {
	UserID   user.ID
	Email    *string
	Password *string
}

func (c EditProfile) Empty() bool {
	return c.Email == nil && c.Password == nil
}

// EditProfile updates the caller's own email and/or password. A changed email
// drops the verified flag, replaces the user's verification record and sends
// the new code to the new address.
func (m *Manager) EditProfile(ctx context.Context, cmd EditProfile) (res Result) {
	ctx, span := m.tracer.Start(ctx, "Manager.EditProfile",
		trace.WithAttributes(
			attribute.String("user.id", cmd.UserID.String()),
			attribute.Bool("change.email", cmd.Email != nil),
			attribute.Bool("change.password", cmd.Password != nil),
		))
	defer span.End()
	defer func() { m.record(ctx, "EditProfile", res) }()

	if cmd.Empty() {
		span.AddEvent("nothing to update")
		return succeeded()
	}

	var (
		email        string
		emailChanged bool
		fresh        *verification.Verification
	)
	if cmd.Email != nil {
		email = m.NormalizeEmail(*cmd.Email)
	}

	err := m.tx.WithTx(ctx, func(ctx context.Context) error {
		err := m.users.UpdateUser(ctx, cmd.UserID, func(ctx context.Context, u *user.User) error {
			if cmd.Email != nil {
				changed, err := u.ChangeEmail(email)
				if err != nil {
					return err
				}
				emailChanged = changed
			}
			if cmd.Password != nil {
				if err := u.ChangePassword(*cmd.Password, m.hasher); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, user.ErrEmailTaken) {
				return errDuplicateEmail
			}
			return err
		}
		if !emailChanged {
			return nil
		}

		if err := m.verifications.DeleteVerificationsByUserID(ctx, cmd.UserID); err != nil {
			return err
		}
		fresh, err = verification.New(cmd.UserID)
		if err != nil {
			return err
		}
		return m.verifications.SaveVerification(ctx, fresh)
	})
	if err != nil {
		var verrs validation.Errors
		switch {
		case errors.As(err, &verrs):
			otelx.RecordSpanError(span, err, "invalid profile input")
			return invalidInput(err)
		case errors.Is(err, errDuplicateEmail):
			span.AddEvent("email already taken")
			return failed(KindDuplicateEmail)
		}
		otelx.RecordSpanError(span, err, "failed to update profile")
		m.logger.ErrorContext(ctx, "failed to update profile",
			slog.String("user_id", cmd.UserID.String()),
			slog.Any("error", err),
		)
		return failed(KindProfileUpdateFailed)
	}

	if emailChanged {
		m.logger.InfoContext(ctx, "email changed, verification reissued",
			slog.String("user_id", cmd.UserID.String()),
			slog.String("email", logging.RedactEmail(email)),
		)
		m.notify(ctx, email, fresh.Code())
	}

	return succeeded()
}
