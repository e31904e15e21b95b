package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/accounts/internal/domain/user"
	"gitlab.com/ucmsv2/accounts/pkg/ctxs"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/httpx"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	maxTokenLen = 4096
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/ports/http/middlewares")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/ports/http/middlewares")
)

type TokenDecoder interface {
	Decode(ctx context.Context, token string) (user.ID, error)
}

type Middleware struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	tokens     TokenDecoder
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Tokens     TokenDecoder
	Errhandler *httpx.ErrorHandler
}

func NewMiddleware(args Args) *Middleware {
	m := &Middleware{
		tracer:     args.Tracer,
		logger:     args.Logger,
		tokens:     args.Tokens,
		errhandler: args.Errhandler,
	}

	if m.tracer == nil {
		m.tracer = tracer
	}
	if m.logger == nil {
		m.logger = logger
	}
	if m.tokens == nil {
		panic("token decoder is required for auth middleware")
	}
	if m.errhandler == nil {
		m.errhandler = httpx.NewErrorHandler()
	}
	return m
}

// Auth resolves the caller from an "Authorization: Bearer <token>" header
// and stores it in the request context.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "AuthMiddleware")
		defer span.End()

		token, err := bearerToken(r)
		if err != nil {
			m.errhandler.HandleError(w, r, span, errorx.NewUnauthorized().WithCause(err, "middlewares.Auth"), "missing bearer token")
			return
		}

		userID, err := m.tokens.Decode(ctx, token)
		if err != nil {
			m.errhandler.HandleError(w, r, span, err, "failed to decode bearer token")
			return
		}

		span.SetAttributes(attribute.String("user.id", userID.String()))
		ctx = ctxs.WithUser(ctx, &ctxs.User{ID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return "", errors.New("authorization header is empty")
	}
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", errors.New("authorization header is not a bearer token")
	}

	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", errors.New("bearer token is empty")
	}
	if len(token) > maxTokenLen {
		return "", errors.New("bearer token is too long")
	}
	return token, nil
}
