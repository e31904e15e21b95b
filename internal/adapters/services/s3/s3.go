package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
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
	tracer = otel.Tracer("ucmsv2/accounts/internal/adapters/services/s3")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/adapters/services/s3")
)

type Client struct {
	s3Client *s3.Client
	bucket   string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	const op = "s3.NewClient"
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return &Client{
		s3Client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = true // MinIO
		}),
		bucket: cfg.Bucket,
	}, nil
}

func (c *Client) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	const op = "s3.Client.PutObject"
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	return errorx.Wrap(err, op)
}

func (c *Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	const op = "s3.Client.GetObject"
	output, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}
	defer func() {
		if cerr := output.Body.Close(); cerr != nil {
			slog.Warn("failed to close S3 object body", slog.Any("error", cerr))
		}
	}()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	return data, nil
}

// ListKeys returns up to 1000 keys under prefix.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	const op = "s3.Client.ListKeys"
	output, err := c.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, errorx.Wrap(err, op)
	}

	keys := make([]string, 0, len(output.Contents))
	for _, obj := range output.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// CreateBucket is a no-op when the bucket already belongs to us.
func (c *Client) CreateBucket(ctx context.Context) error {
	const op = "s3.Client.CreateBucket"
	_, err := c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return errorx.Wrap(err, op)
	}
	return nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// MailDrop stores outgoing mail as RFC 822 objects instead of sending it.
// A relay or an operator picks them up from the bucket.
type MailDrop struct {
	tracer trace.Tracer
	logger *slog.Logger
	client *Client
	from   string
	prefix string
	now    func() time.Time
}

type MailDropArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Client *Client
	From   string
	// Prefix defaults to "mail".
	Prefix string
}

func NewMailDrop(args MailDropArgs) *MailDrop {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Client == nil {
		panic("s3: client is required")
	}
	if args.Prefix == "" {
		args.Prefix = "mail"
	}

	return &MailDrop{
		tracer: args.Tracer,
		logger: args.Logger,
		client: args.Client,
		from:   args.From,
		prefix: args.Prefix,
		now:    time.Now,
	}
}

func (d *MailDrop) SendMail(ctx context.Context, payload mail.Payload) error {
	const op = "s3.MailDrop.SendMail"
	ctx, span := d.tracer.Start(ctx, "MailDrop.SendMail",
		trace.WithAttributes(attribute.String("mail.to", logging.RedactEmail(payload.To))))
	defer span.End()

	now := d.now().UTC()
	key := path.Join(d.prefix, now.Format("2006/01/02"), fmt.Sprintf("%s.eml", uuid.NewString()))

	if err := d.client.PutObject(ctx, key, payload.Message(d.from, now), "message/rfc822"); err != nil {
		otelx.RecordSpanError(span, err, "failed to store mail")
		return errorx.Wrap(err, op)
	}

	span.SetAttributes(attribute.String("mail.key", key))
	d.logger.DebugContext(ctx, "mail stored", slog.String("key", key), slog.String("to", logging.RedactEmail(payload.To)))
	return nil
}
