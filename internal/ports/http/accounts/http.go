package accountshttp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ARUMANDESU/validation"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountapp "gitlab.com/ucmsv2/accounts/internal/application/account"
	"gitlab.com/ucmsv2/accounts/internal/domain/valueobject/role"
	"gitlab.com/ucmsv2/accounts/internal/ports/http/middlewares"
	"gitlab.com/ucmsv2/accounts/pkg/ctxs"
	"gitlab.com/ucmsv2/accounts/pkg/env"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/httpx"
	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
	"gitlab.com/ucmsv2/accounts/pkg/logging"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
	"gitlab.com/ucmsv2/accounts/pkg/sanitizex"
	"gitlab.com/ucmsv2/accounts/pkg/validationx"
)

var (
	tracer = otel.Tracer("ucmsv2/accounts/internal/ports/http/accounts")
	logger = otelslog.NewLogger("ucmsv2/accounts/internal/ports/http/accounts")
)

var ErrNothingToUpdate = errorx.NewValidationFailed().WithKey(i18nx.KeyNothingToUpdate)

type HTTP struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	manager    *accountapp.Manager
	middleware *middlewares.Middleware
	errhandler *httpx.ErrorHandler
	devtools   bool
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Manager    *accountapp.Manager
	Middleware *middlewares.Middleware
	Errhandler *httpx.ErrorHandler
	Mode       env.Mode
}

func NewHTTP(args Args) *HTTP {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Errhandler == nil {
		args.Errhandler = httpx.NewErrorHandler()
	}
	if args.Manager == nil {
		panic("account manager is required")
	}
	if args.Middleware == nil {
		panic("auth middleware is required")
	}

	return &HTTP{
		tracer:     args.Tracer,
		logger:     args.Logger,
		manager:    args.Manager,
		middleware: args.Middleware,
		errhandler: args.Errhandler,
		devtools:   args.Mode.DevToolsEnabled(),
	}
}

func (h *HTTP) Route(r chi.Router) {
	r.Post("/v1/auth/login", h.Login)

	r.Route("/v1/accounts", func(r chi.Router) {
		r.Post("/", h.CreateAccount)
		r.Post("/verify", h.VerifyEmail)
		r.Get("/verify", h.VerifyEmailLink)

		r.Group(func(r chi.Router) {
			r.Use(h.middleware.Auth)
			r.Get("/me", h.GetMe)
			r.Patch("/me", h.EditMe)
		})
	})

	if h.devtools {
		r.Get("/dev/accounts/verification-code/{email}", h.GetVerificationCode)
	}
}

type CreateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *CreateAccountRequest) Sanitized() {
	r.Email = sanitizex.CleanEmail(r.Email)
	r.Role = sanitizex.CleanSingleLine(r.Role)
}

func (r *CreateAccountRequest) SetSpanAttrs(span trace.Span) {
	otelx.SetSpanAttrs(span, map[string]any{
		"email": logging.RedactEmail(r.Email),
		"role":  r.Role,
	})
}

func (r *CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validationx.EmailRules...),
		validation.Field(&r.Password, validationx.PasswordRules...),
		validation.Field(&r.Role, validation.Required, validation.By(func(value any) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			_, err := role.Parse(s)
			return err
		})),
	)
}

func (h *HTTP) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAccount")
	defer span.End()

	var req CreateAccountRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	req.Sanitized()
	req.SetSpanAttrs(span)
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}
	userRole, _ := role.Parse(req.Role)

	res := h.manager.CreateAccount(ctx, accountapp.CreateAccount{
		Email:    req.Email,
		Password: req.Password,
		Role:     userRole,
	})
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to create account")
		return
	}

	httpx.Success(w, r, http.StatusCreated, httpx.Envelope{"user_id": res.UserID.String()})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Sanitized() {
	r.Email = sanitizex.CleanEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validationx.EmailRules...),
		validation.Field(&r.Password, validationx.StorablePasswordRules...),
	)
}

func (h *HTTP) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req LoginRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	req.Sanitized()
	otelx.SetSpanAttrs(span, map[string]any{"email": logging.RedactEmail(req.Email)})
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	res := h.manager.Login(ctx, accountapp.Login{Email: req.Email, Password: req.Password})
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to log in")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"token": res.Token})
}

type ProfileResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

func (h *HTTP) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetMe")
	defer span.End()

	caller, ok := ctxs.UserFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "no user in context")
		return
	}

	res := h.manager.GetProfile(ctx, caller.ID)
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get profile")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"user": ProfileResponse{
		ID:       res.Profile.ID.String(),
		Email:    res.Profile.Email,
		Role:     res.Profile.Role.String(),
		Verified: res.Profile.Verified,
	}})
}

type EditProfileRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r *EditProfileRequest) Sanitized() {
	if r.Email != nil {
		email := sanitizex.CleanEmail(*r.Email)
		r.Email = &email
	}
}

func (r *EditProfileRequest) Validate() error {
	if r.Email == nil && r.Password == nil {
		return ErrNothingToUpdate
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.When(r.Email != nil, validationx.EmailRules...)),
		validation.Field(&r.Password, validation.When(r.Password != nil, validationx.PasswordRules...)),
	)
}

func (h *HTTP) EditMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EditMe")
	defer span.End()

	caller, ok := ctxs.UserFromCtx(ctx)
	if !ok {
		h.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "no user in context")
		return
	}

	var req EditProfileRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	req.Sanitized()
	otelx.SetSpanAttrs(span, map[string]any{
		"user.id":          caller.ID.String(),
		"email_changed":    req.Email != nil,
		"password_changed": req.Password != nil,
	})
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate request body")
		return
	}

	res := h.manager.EditProfile(ctx, accountapp.EditProfile{
		UserID:   caller.ID,
		Email:    req.Email,
		Password: req.Password,
	})
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to edit profile")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}

func (r *VerifyEmailRequest) Sanitized() {
	r.Code = strings.ToUpper(sanitizex.CleanToken(r.Code))
}

func (r *VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code, validationx.VerificationCodeRules...),
	)
}

func (h *HTTP) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyEmail")
	defer span.End()

	var req VerifyEmailRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to read json")
		return
	}

	h.verify(w, r.WithContext(ctx), span, req)
}

// VerifyEmailLink serves the link sent in verification mails.
func (h *HTTP) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyEmailLink")
	defer span.End()

	h.verify(w, r.WithContext(ctx), span, VerifyEmailRequest{Code: r.URL.Query().Get("code")})
}

func (h *HTTP) verify(w http.ResponseWriter, r *http.Request, span trace.Span, req VerifyEmailRequest) {
	req.Sanitized()
	otelx.SetSpanAttrs(span, map[string]any{"code": logging.RedactSecret(req.Code)})
	if err := req.Validate(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to validate verification code")
		return
	}

	res := h.manager.VerifyEmail(r.Context(), accountapp.VerifyEmail{Code: req.Code})
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to verify email")
		return
	}

	httpx.Success(w, r, http.StatusOK, nil)
}

func (h *HTTP) GetVerificationCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetVerificationCode")
	defer span.End()

	email := sanitizex.CleanEmail(chi.URLParam(r, "email"))
	otelx.SetSpanAttrs(span, map[string]any{"email": logging.RedactEmail(email)})
	if err := validation.Validate(email, validationx.EmailRules...); err != nil {
		h.errhandler.HandleError(w, r, span, err, "invalid email")
		return
	}

	res := h.manager.GetVerificationCode(ctx, email)
	if err := res.Err(); err != nil {
		h.errhandler.HandleError(w, r, span, err, "failed to get verification code")
		return
	}

	httpx.Success(w, r, http.StatusOK, httpx.Envelope{"code": res.Code})
}
