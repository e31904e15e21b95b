package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ARUMANDESU/validation"
	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"gitlab.com/ucmsv2/accounts"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/pkg/otelx"
)

var logger = otelslog.NewLogger("ucmsv2/accounts/pkg/httpx")

var localeFiles = []string{
	"locales/en.toml",
	"locales/ru.toml",
	"locales/validation.en.toml",
	"locales/validation.ru.toml",
}

var supported = []language.Tag{language.English, language.Russian}

type ErrorHandler struct {
	logger     *slog.Logger
	bundle     *i18n.Bundle
	matcher    language.Matcher
	localizers map[language.Tag]*i18n.Localizer
}

func NewErrorHandler() *ErrorHandler {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, f := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(accounts.Locales, f); err != nil {
			panic(fmt.Sprintf("failed to load locale file %s: %v", f, err))
		}
	}

	localizers := make(map[language.Tag]*i18n.Localizer, len(supported))
	for _, tag := range supported {
		localizers[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	return &ErrorHandler{
		logger:     logger,
		bundle:     bundle,
		matcher:    language.NewMatcher(supported),
		localizers: localizers,
	}
}

// Localizer picks the best supported language for an Accept-Language header value.
func (h *ErrorHandler) Localizer(acceptLanguage string) *i18n.Localizer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return h.localizers[language.English]
	}

	_, idx, _ := h.matcher.Match(tags...)
	return h.localizers[supported[idx]]
}

// HandleError records err on span and writes a localized error response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, span trace.Span, err error, msg string) {
	if span != nil {
		otelx.RecordSpanError(span, err, msg)
	}

	localizer := h.Localizer(r.Header.Get("Accept-Language"))

	var appErr *errorx.I18nError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatusCode()
		h.log(r, status, msg, err)
		writeError(w, r, appErr.Code, appErr.Localize(localizer), status, nil)
		return
	}

	var valErrs validation.Errors
	if errors.As(err, &valErrs) {
		h.log(r, http.StatusBadRequest, msg, err)
		fields := make(map[string]string, len(valErrs))
		for field, fieldErr := range valErrs {
			fields[field] = h.localizeValidation(localizer, fieldErr)
		}
		summary := errorx.NewValidationFailed().Localize(localizer)
		writeError(w, r, errorx.CodeValidationFailed, summary, http.StatusBadRequest, fields)
		return
	}

	var valErr validation.Error
	if errors.As(err, &valErr) {
		h.log(r, http.StatusBadRequest, msg, err)
		writeError(w, r,
			errorx.CodeValidationFailed,
			h.localizeValidation(localizer, valErr),
			http.StatusBadRequest,
			nil,
		)
		return
	}

	h.log(r, http.StatusInternalServerError, "unhandled error: "+msg, err)
	internalErr := errorx.NewInternalError()
	writeError(w, r,
		internalErr.Code,
		internalErr.Localize(localizer),
		internalErr.HTTPStatusCode(),
		nil,
	)
}

func (h *ErrorHandler) localizeValidation(localizer *i18n.Localizer, err error) string {
	var valErr validation.Error
	if !errors.As(err, &valErr) {
		return err.Error()
	}

	msg, lerr := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    valErr.Code(),
		TemplateData: valErr.Params(),
	})
	if lerr != nil {
		return valErr.Error()
	}
	return msg
}

func (h *ErrorHandler) log(r *http.Request, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, "error", err, "status", status)
		return
	}
	h.logger.DebugContext(r.Context(), msg, "error", err, "status", status)
}

func writeError(w http.ResponseWriter, r *http.Request,
	code errorx.Code,
	message string,
	status int,
	fields map[string]string,
) {
	response := Envelope{
		"code":    code,
		"message": message,
		"success": false,
	}
	if len(fields) > 0 {
		response["errors"] = fields
	}

	err := WriteJSON(w, status, response, nil)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
