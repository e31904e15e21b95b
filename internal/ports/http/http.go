package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	accountapp "gitlab.com/ucmsv2/accounts/internal/application/account"
	accountshttp "gitlab.com/ucmsv2/accounts/internal/ports/http/accounts"
	"gitlab.com/ucmsv2/accounts/internal/ports/http/middlewares"
	"gitlab.com/ucmsv2/accounts/pkg/env"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/httpx"
)

type Port struct {
	accounts   *accountshttp.HTTP
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Manager *accountapp.Manager
	Tokens  middlewares.TokenDecoder
	Mode    env.Mode
}

func NewPort(args Args) *Port {
	errhandler := httpx.NewErrorHandler()
	mw := middlewares.NewMiddleware(middlewares.Args{
		Tokens:     args.Tokens,
		Errhandler: errhandler,
	})

	return &Port{
		accounts: accountshttp.NewHTTP(accountshttp.Args{
			Manager:    args.Manager,
			Middleware: mw,
			Errhandler: errhandler,
			Mode:       args.Mode,
		}),
		errhandler: errhandler,
	}
}

// Route mounts the API on r, creating a new router when r is nil.
func (p *Port) Route(r chi.Router) chi.Router {
	if r == nil {
		r = chi.NewRouter()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.OTel)
	r.Use(middlewares.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, nil, errorx.NewNotFound(), "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		p.errhandler.HandleError(w, r, nil, errorx.NewMethodNotAllowed(), "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Success(w, r, http.StatusOK, httpx.Envelope{"status": "ok"})
	})

	p.accounts.Route(r)

	return r
}
