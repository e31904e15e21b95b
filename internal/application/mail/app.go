package mail

import (
	"context"
	"log/slog"

	mailevent "gitlab.com/ucmsv2/accounts/internal/application/mail/event"
)

type App struct {
	Event *mailevent.MailEventHandler
}

type Args struct {
	Logger        *slog.Logger
	Mailsender    mailevent.MailSender
	VerifyBaseURL string
}

func NewApp(args Args) *App {
	return &App{
		Event: mailevent.NewMailEventHandler(mailevent.MailEventHandlerArgs{
			Logger:        args.Logger,
			Mailsender:    args.Mailsender,
			VerifyBaseURL: args.VerifyBaseURL,
		}),
	}
}

// SendVerificationEmail sends the mail synchronously. It is the direct
// notifier used when no outbox or broker sits between the account manager
// and the mail sender.
func (a *App) SendVerificationEmail(ctx context.Context, email, code string) error {
	return a.Event.SendVerification(ctx, email, code)
}
