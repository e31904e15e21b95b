package mailevent

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

const VerificationSubject = "Confirm your email address"

func (h *MailEventHandler) HandleEmailRequested(ctx context.Context, e *verification.EmailRequested) error {
	if e == nil {
		return nil
	}
	const op = "mailevent.MailEventHandler.HandleEmailRequested"

	l := h.logger.With(slog.String("event", "EmailRequested"), slog.String("email", logging.RedactEmail(e.Email)))
	ctx, span := h.tracer.Start(
		ctx,
		"MailEventHandler.HandleEmailRequested",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(e.Extract())),
		trace.WithAttributes(
			attribute.String("event.id", e.ID.String()),
			attribute.String("event.email", logging.RedactEmail(e.Email)),
		),
	)
	defer span.End()

	payload := VerificationPayload(e.Email, e.Code, h.verifyBaseURL)
	if err := payload.Validate(); err != nil {
		// acked: a malformed event never becomes valid
		otelx.RecordSpanError(span, err, "invalid verification mail")
		l.ErrorContext(ctx, "dropping invalid verification mail", slog.Any("error", err))
		return nil
	}

	if err := h.mailsender.SendMail(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send verification mail")
		l.ErrorContext(ctx, "failed to send verification mail", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	l.DebugContext(ctx, "verification mail sent")
	return nil
}

// VerificationPayload composes the mail carrying a verification code.
func VerificationPayload(to, code, baseURL string) mail.Payload {
	var body strings.Builder
	fmt.Fprintf(&body, "Your email verification code is: %s\n", code)
	if link := verifyLink(baseURL, code); link != "" {
		fmt.Fprintf(&body, "\nOr open this link to confirm your address:\n%s\n", link)
	}
	body.WriteString("\nIf you did not request this, you can ignore this message.\n")

	return mail.Payload{
		To:      to,
		Subject: VerificationSubject,
		Body:    body.String(),
	}
}

func verifyLink(baseURL, code string) string {
	if baseURL == "" || code == "" {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// SendVerification composes and sends a verification mail without an event.
func (h *MailEventHandler) SendVerification(ctx context.Context, email, code string) error {
	const op = "mailevent.MailEventHandler.SendVerification"
	ctx, span := h.tracer.Start(ctx, "MailEventHandler.SendVerification",
		trace.WithAttributes(attribute.String("email", logging.RedactEmail(email))))
	defer span.End()

	payload := VerificationPayload(email, code, h.verifyBaseURL)
	if err := payload.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid verification mail")
		return errorx.Wrap(err, op)
	}
	if err := h.mailsender.SendMail(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send verification mail")
		return errorx.Wrap(err, op)
	}
	return nil
}
