package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/ucmsv2/accounts"
	"gitlab.com/ucmsv2/accounts/internal/adapters/notifier"
	"gitlab.com/ucmsv2/accounts/internal/adapters/repos/postgres"
	"gitlab.com/ucmsv2/accounts/internal/adapters/services/logmail"
	"gitlab.com/ucmsv2/accounts/internal/adapters/services/s3"
	"gitlab.com/ucmsv2/accounts/internal/adapters/services/smtp"
	accountapp "gitlab.com/ucmsv2/accounts/internal/application/account"
	authapp "gitlab.com/ucmsv2/accounts/internal/application/auth"
	"gitlab.com/ucmsv2/accounts/internal/application/mail"
	mailevent "gitlab.com/ucmsv2/accounts/internal/application/mail/event"
	httpport "gitlab.com/ucmsv2/accounts/internal/ports/http"
	watermillport "gitlab.com/ucmsv2/accounts/internal/ports/watermill"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/passhash"
	pgpkg "gitlab.com/ucmsv2/accounts/pkg/postgres"
	"gitlab.com/ucmsv2/accounts/pkg/watermillx"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "accounts service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup := logging.Setup(config.Mode)
	defer cleanup()
	slog.SetDefault(logger)

	shutdownOTel, err := setupOTelSDK(ctx, config.OTelExporter)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry SDK: %w", err)
	}
	defer func() {
		if err := shutdownOTel(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "failed to shutdown OpenTelemetry SDK", "error", err)
		}
	}()

	slog.InfoContext(ctx, "starting accounts service",
		"mode", config.Mode,
		"port", config.Port,
		"notifier", config.Notifier,
		"mail_sender", config.MailSender,
	)

	pool, err := setupDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	wmlogger := watermillx.NewSlogAdapter(slog.Default(), slog.LevelInfo)
	if err := watermillx.InitializeEventSchema(ctx, pool, wmlogger); err != nil {
		return fmt.Errorf("failed to initialize event schema: %w", err)
	}

	tokens, err := authapp.NewTokenIssuer(authapp.Args{
		Secret: config.TokenSecret,
		TTL:    config.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	mailApp, err := setupMail(ctx, config)
	if err != nil {
		return err
	}

	notify, closeNotifier, err := setupNotifier(config, pool, wmlogger, mailApp)
	if err != nil {
		return err
	}
	defer closeNotifier()

	manager := accountapp.NewManager(accountapp.Args{
		Users:              postgres.NewUserRepo(pool, nil, nil),
		Verifications:      postgres.NewVerificationRepo(pool, nil, nil),
		Tx:                 postgres.NewTransactor(pool),
		Hasher:             passhash.New(config.PasswordCost),
		Tokens:             tokens,
		Notifier:           notify,
		NotifyTimeout:      config.NotifyTimeout,
		EmailCaseSensitive: config.EmailCaseSensitive,
	})

	eventRouter, err := setupEventProcessing(pool, wmlogger, mailApp)
	if err != nil {
		return err
	}
	routerErr := make(chan error, 1)
	go func() {
		routerErr <- eventRouter.Run(ctx)
	}()

	server := &http.Server{
		Addr: ":" + config.Port,
		Handler: httpport.NewPort(httpport.Args{
			Manager: manager,
			Tokens:  tokens,
			Mode:    config.Mode,
		}).Route(nil),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting HTTP server", "port", config.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutting down")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-routerErr:
		if err != nil {
			runErr = fmt.Errorf("event router stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http server shutdown: %w", err))
	}
	if err := manager.Wait(shutdownCtx); err != nil {
		slog.WarnContext(shutdownCtx, "notifications still in flight at shutdown", "error", err)
	}
	if err := eventRouter.Close(); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("event router close: %w", err))
	}

	slog.InfoContext(shutdownCtx, "accounts service stopped")
	return runErr
}

func setupDatabase(ctx context.Context, config *Config) (*pgxpool.Pool, error) {
	pool, err := pgpkg.NewPgxPool(ctx, config.PgDSN, config.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pgpkg.Migrate(config.PgDSN, accounts.Migrations, "migrations"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return pool, nil
}

func setupMail(ctx context.Context, config *Config) (*mail.App, error) {
	var sender mailevent.MailSender
	switch config.MailSender {
	case MailSenderSMTP:
		sender = smtp.NewSender(smtp.Config{
			Host:     config.SMTP.Host,
			Port:     config.SMTP.Port,
			Username: config.SMTP.Username,
			Password: config.SMTP.Password,
			From:     config.MailFrom,
			StartTLS: config.SMTP.StartTLS,
		}, nil, nil)
	case MailSenderS3:
		client, err := s3.NewClient(ctx, s3.Config{
			Endpoint:  config.S3.Endpoint,
			AccessKey: config.S3.AccessKey,
			SecretKey: config.S3.SecretKey,
			Bucket:    config.S3.Bucket,
			Region:    config.S3.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		if err := client.CreateBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to create mail bucket: %w", err)
		}
		sender = s3.NewMailDrop(s3.MailDropArgs{
			Client: client,
			From:   config.MailFrom,
			Prefix: config.S3.Prefix,
		})
	default:
		sender = logmail.NewSender(nil)
	}

	return mail.NewApp(mail.Args{
		Mailsender:    sender,
		VerifyBaseURL: config.VerifyBaseURL,
	}), nil
}

func setupNotifier(
	config *Config,
	pool *pgxpool.Pool,
	wmlogger watermill.LoggerAdapter,
	mailApp *mail.App,
) (accountapp.Notifier, func(), error) {
	noop := func() {}

	switch config.Notifier {
	case NotifierKafka:
		k := notifier.NewKafka(notifier.KafkaArgs{
			Writer: notifier.NewKafkaWriter(notifier.KafkaConfig{
				Brokers:  config.Kafka.Brokers,
				Topic:    config.Kafka.Topic,
				Username: config.Kafka.Username,
				Password: config.Kafka.Password,
				TLS:      config.Kafka.TLS,
			}),
		})
		return k, func() {
			if err := k.Close(); err != nil {
				slog.Error("failed to close kafka writer", "error", err)
			}
		}, nil
	case NotifierDirect:
		return mailApp, noop, nil
	default:
		bus, err := watermillx.NewEventBus(pool, wmlogger)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create event bus: %w", err)
		}
		return notifier.NewOutbox(notifier.OutboxArgs{Bus: bus}), noop, nil
	}
}

func setupEventProcessing(pool *pgxpool.Pool, wmlogger watermill.LoggerAdapter, mailApp *mail.App) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, wmlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	port, err := watermillport.NewPort(router, pool, wmlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill port: %w", err)
	}
	if err := port.Register(watermillport.AppEventHandlers{Mail: mailApp.Event}); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	return router, nil
}
