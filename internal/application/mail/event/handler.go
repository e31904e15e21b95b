package mailevent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/application/mail/event")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/application/mail/event")
)

type MailSender interface {
	SendMail(ctx context.Context, payload mail.Payload) error
}

type MailEventHandler struct {
	tracer        trace.Tracer
	logger        *slog.Logger
	mailsender    MailSender
	verifyBaseURL string
}

type MailEventHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Mailsender MailSender
	// VerifyBaseURL is the link target for verification mails. The code is
	// appended as the "code" query parameter. Empty means code only.
	VerifyBaseURL string
}

func NewMailEventHandler(args MailEventHandlerArgs) *MailEventHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Mailsender == nil {
		panic("mailevent: mail sender is required")
	}

	return &MailEventHandler{
		tracer:        args.Tracer,
		logger:        args.Logger,
		mailsender:    args.Mailsender,
		verifyBaseURL: args.VerifyBaseURL,
	}
}
