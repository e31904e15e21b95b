package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/mail"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/adapters/services/smtp")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/adapters/services/smtp")
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// StartTLS upgrades the connection when the server offers it. It is
	// required whenever Username is set.
	StartTLS bool
	Timeout  time.Duration
}

// Sender delivers mail over SMTP, one connection per message.
type Sender struct {
	tracer trace.Tracer
	logger *slog.Logger
	cfg    Config
}

func NewSender(cfg Config, t trace.Tracer, l *slog.Logger) *Sender {
	if t == nil {
		t = tracer
	}
	if l == nil {
		l = logger
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Sender{tracer: t, logger: l, cfg: cfg}
}

func (s *Sender) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

func (s *Sender) SendMail(ctx context.Context, payload mail.Payload) error {
	const op = "smtp.Sender.SendMail"
	ctx, span := s.tracer.Start(ctx, "Sender.SendMail",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mail.to", logging.RedactEmail(payload.To)),
			attribute.String("smtp.addr", s.addr()),
		))
	defer span.End()

	if err := s.send(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send mail")
		return errorx.Wrap(err, op)
	}

	s.logger.DebugContext(ctx, "mail sent", slog.String("to", logging.RedactEmail(payload.To)))
	return nil
}

func (s *Sender) send(ctx context.Context, payload mail.Payload) error {
	dialer := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	defer c.Close()

	if s.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(payload.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(payload.Message(s.cfg.From, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return c.Quit()
}
