package watermill

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	mailevent "gitlab.com/ucmsv2/accounts/internal/application/mail/event"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
)

type Port struct {
	eventProcessor *cqrs.EventProcessor
}

type AppEventHandlers struct {
	Mail *mailevent.MailEventHandler
}

func NewPort(router *message.Router, conn *pgxpool.Pool, wmlogger watermill.LoggerAdapter) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessor(router, conn, wmlogger, watermillx.ProcessorConfig{
		InitializeSchema: true,
	})
	if err != nil {
		return nil, err
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

// NewPortForTest polls aggressively and expects InitializeEventSchema to have run.
func NewPortForTest(router *message.Router, conn *pgxpool.Pool, wmlogger watermill.LoggerAdapter) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessor(router, conn, wmlogger, watermillx.ProcessorConfig{
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

// Register adds the handlers to the router. It must be called before the router runs.
func (p *Port) Register(handlers AppEventHandlers) error {
	if handlers.Mail == nil {
		return fmt.Errorf("mail event handler is required")
	}

	err := p.eventProcessor.AddHandlers(
		cqrs.NewEventHandler("MailOnEmailRequested", handlers.Mail.HandleEmailRequested),
	)
	if err != nil {
		return fmt.Errorf("failed to add event handlers: %w", err)
	}

	return nil
}
