package notifier

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/verification"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes EmailRequested as JSON for an external mail service. The
// message is keyed by address so codes for one inbox stay ordered.
type Kafka struct {
	tracer trace.Tracer
	logger *slog.Logger
	writer MessageWriter
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
	TLS      bool
}

// NewKafkaWriter builds a synchronous writer that waits for all in-sync replicas.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if cfg.TLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		Transport:              transport,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

type KafkaArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Writer MessageWriter
}

func NewKafka(args KafkaArgs) *Kafka {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Writer == nil {
		panic("notifier: kafka writer is required")
	}

	return &Kafka{
		tracer: args.Tracer,
		logger: args.Logger,
		writer: args.Writer,
	}
}

func (k *Kafka) SendVerificationEmail(ctx context.Context, email, code string) error {
	const op = "notifier.Kafka.SendVerificationEmail"
	ctx, span := k.tracer.Start(ctx, "Kafka.SendVerificationEmail",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("email", logging.RedactEmail(email))))
	defer span.End()

	e := verification.NewEmailRequested(email, code)
	e.Propagate(ctx)

	value, err := json.Marshal(e)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to marshal event")
		return errorx.Wrap(err, op)
	}

	headers := make([]kafka.Header, 0, len(e.Carrier)+1)
	headers = append(headers, kafka.Header{Key: "event_name", Value: []byte("EmailRequested")})
	for key, val := range e.Carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(val)})
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(email),
		Value:   value,
		Headers: headers,
		Time:    e.Timestamp,
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to write kafka message")
		return errorx.Wrap(err, op)
	}

	k.logger.DebugContext(ctx, "verification email published",
		slog.String("email", logging.RedactEmail(email)),
		slog.String("event.id", e.ID.String()),
	)
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
