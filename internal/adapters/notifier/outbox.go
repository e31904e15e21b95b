package notifier

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

// EventPublisher is satisfied by *cqrs.EventBus.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Outbox writes an EmailRequested event to the mail stream. The mail app
// consumes it, so delivery and retries happen outside the request path.
type Outbox struct {
	tracer trace.Tracer
	logger *slog.Logger
	bus    EventPublisher
}

type OutboxArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Bus    EventPublisher
}

func NewOutbox(args OutboxArgs) *Outbox {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Bus == nil {
		panic("notifier: event publisher is required")
	}

	return &Outbox{
		tracer: args.Tracer,
		logger: args.Logger,
		bus:    args.Bus,
	}
}

func (o *Outbox) SendVerificationEmail(ctx context.Context, email, code string) error {
	const op = "notifier.Outbox.SendVerificationEmail"
	ctx, span := o.tracer.Start(ctx, "Outbox.SendVerificationEmail",
		trace.WithAttributes(attribute.String("email", logging.RedactEmail(email))))
	defer span.End()

	e := verification.NewEmailRequested(email, code)
	e.Propagate(ctx)

	if err := o.bus.Publish(ctx, e); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish email requested event")
		return errorx.Wrap(err, op)
	}

	o.logger.DebugContext(ctx, "verification email queued",
		slog.String("email", logging.RedactEmail(email)),
		slog.String("event.id", e.ID.String()),
	)
	return nil
}
