package authapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

const (
	ISS         = "ucmsv2_accounts"
	UserSubject = "user"

	MinSecretLen = 16
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/application/auth")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/application/auth")
)

var (
	ErrInvalidToken = errorx.NewInvalidToken()
	ErrShortSecret  = fmt.Errorf("token secret must be at least %d bytes", MinSecretLen)
)

// Claims of an identity token. The user id travels in "uid".
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and decodes identity tokens with HS256.
type TokenIssuer struct {
	tracer        trace.Tracer
	logger        *slog.Logger
	secret        []byte
	ttl           time.Duration
	signingMethod *jwt.SigningMethodHMAC
	now           func() time.Time
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger

	Secret string
	// TTL of issued tokens. Zero issues tokens without an expiry.
	TTL time.Duration
}

func NewTokenIssuer(args Args) (*TokenIssuer, error) {
	if len(args.Secret) < MinSecretLen {
		return nil, ErrShortSecret
	}
	if args.TTL < 0 {
		return nil, errors.New("token ttl must not be negative")
	}

	ti := &TokenIssuer{
		tracer:        tracer,
		logger:        logger,
		secret:        []byte(args.Secret),
		ttl:           args.TTL,
		signingMethod: jwt.SigningMethodHS256,
		now:           time.Now,
	}
	if args.Tracer != nil {
		ti.tracer = args.Tracer
	}
	if args.Logger != nil {
		ti.logger = args.Logger
	}

	return ti, nil
}

// Issue returns a signed token naming the user.
func (ti *TokenIssuer) Issue(ctx context.Context, userID user.ID) (string, error) {
	const op = "authapp.TokenIssuer.Issue"
	_, span := ti.tracer.Start(ctx, "TokenIssuer.Issue", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("signing_method", ti.signingMethod.Alg()),
		attribute.String("ttl", ti.ttl.String()),
	))
	defer span.End()

	if userID.IsZero() {
		err := errors.New("user id is empty")
		otelx.RecordSpanError(span, err, "empty user id")
		return "", errorx.Wrap(err, op)
	}

	now := ti.now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ISS,
			Subject:  UserSubject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ti.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ti.ttl))
	}

	signed, err := jwt.NewWithClaims(ti.signingMethod, claims).SignedString(ti.secret)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to sign token")
		return "", errorx.Wrap(err, op)
	}

	return signed, nil
}

// Decode verifies the token and returns the user it names. Every failure,
// whatever its cause, is reported as ErrInvalidToken.
func (ti *TokenIssuer) Decode(ctx context.Context, token string) (user.ID, error) {
	const op = "authapp.TokenIssuer.Decode"
	ctx, span := ti.tracer.Start(ctx, "TokenIssuer.Decode")
	defer span.End()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{ti.signingMethod.Alg()}),
		jwt.WithIssuer(ISS),
		jwt.WithSubject(UserSubject),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to parse token")
		ti.logger.DebugContext(ctx, "token rejected", "error", err)
		return user.ID{}, ErrInvalidToken.WithCause(err, op)
	}

	id, err := user.ParseID(claims.UserID)
	if err != nil || id.IsZero() {
		if err == nil {
			err = errors.New("empty uid claim")
		}
		otelx.RecordSpanError(span, err, "invalid uid claim")
		return user.ID{}, ErrInvalidToken.WithCause(err, op)
	}

	span.SetAttributes(attribute.String("user.id", id.String()))
	return id, nil
}
