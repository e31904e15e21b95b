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

func (m *Manager) GetProfile(ctx context.Context, userID user.ID) (res ProfileResult) {
	ctx, span := m.tracer.Start(ctx, "Manager.GetProfile",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()
	defer func() { m.record(ctx, "GetProfile", res.Result) }()

	u, err := m.users.GetUserByID(ctx, userID)
	if err != nil {
		if errorx.IsNotFound(err) {
			span.AddEvent("user not found")
			return ProfileResult{Result: failed(KindUserNotFound)}
		}
		otelx.RecordSpanError(span, err, "failed to get user")
		m.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		return ProfileResult{Result: failed(KindProfileLookupFailed)}
	}

	return ProfileResult{
		Result: succeeded(),
		Profile: Profile{
			ID:       u.ID(),
			Email:    u.Email(),
			Role:     u.Role(),
			Verified: u.Verified(),
		},
	}
}

// GetVerificationCode returns the live code of the user registered with email.
// It exists for development tooling and must not be routed in production.
func (m *Manager) GetVerificationCode(ctx context.Context, email string) (res VerificationCodeResult) {
	ctx, span := m.tracer.Start(ctx, "Manager.GetVerificationCode",
		trace.WithAttributes(attribute.String("user.email", logging.RedactEmail(email))))
	defer span.End()
	defer func() { m.record(ctx, "GetVerificationCode", res.Result) }()

	u, err := m.users.GetUserByEmail(ctx, m.NormalizeEmail(email))
	if err != nil {
		if errorx.IsNotFound(err) {
			return VerificationCodeResult{Result: failed(KindUserNotFound)}
		}
		otelx.RecordSpanError(span, err, "failed to get user by email")
		m.logger.ErrorContext(ctx, "failed to get user by email", slog.Any("error", err))
		return VerificationCodeResult{Result: failed(KindProfileLookupFailed)}
	}

	v, err := m.verifications.GetVerificationByUserID(ctx, u.ID())
	if err != nil {
		if errorx.IsNotFound(err) {
			return VerificationCodeResult{Result: failed(KindVerificationNotFound)}
		}
		otelx.RecordSpanError(span, err, "failed to get verification")
		m.logger.ErrorContext(ctx, "failed to get verification", slog.Any("error", err))
		return VerificationCodeResult{Result: failed(KindProfileLookupFailed)}
	}

	return VerificationCodeResult{Result: succeeded(), Code: v.Code()}
}
