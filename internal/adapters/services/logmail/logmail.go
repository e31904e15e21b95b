// Package logmail is a MailSender for local development. It writes the mail to
// the log instead of delivering it.
package logmail

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
)

type Sender struct {
	logger *slog.Logger
}

func NewSender(l *slog.Logger) *Sender {
	if l == nil {
		l = otelslog.NewLogger("ucmsv2/accounts/internal/adapters/services/logmail")
	}
	return &Sender{logger: l}
}

func (s *Sender) SendMail(ctx context.Context, payload mail.Payload) error {
	s.logger.InfoContext(ctx, "mail",
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
		slog.String("body", payload.Body),
	)
	return nil
}
