package errorx

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"gitlab.com/ucmsv2/accounts/pkg/i18nx"
)

// I18nError is an error carrying a stable code and a localizable message.
// With* methods return modified copies, so package-level sentinel values are never mutated.
type I18nError struct {
	cause              error
	op                 string
	MessageKey         string
	MessageArgs        map[string]any
	MessagePluralCount any
	HTTPCode           int
	Code               Code
}

func (e *I18nError) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Code, e.MessageKey)
	if e.op != "" {
		prefix = e.op + ": " + prefix
	}
	if e.cause == nil {
		return prefix
	}

	return fmt.Sprintf("%s: %s", prefix, e.cause)
}

func (e *I18nError) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *I18nError with the same code and message key.
func (e *I18nError) Is(target error) bool {
	t, ok := target.(*I18nError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.MessageKey == t.MessageKey
}

func (e *I18nError) Localize(localizer *i18n.Localizer) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    e.MessageKey,
		TemplateData: e.MessageArgs,
		PluralCount:  e.MessagePluralCount,
	})
	if err != nil {
		return e.MessageKey
	}
	return msg
}

func (e *I18nError) HTTPStatusCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}

	return HTTPStatusCode(e.Code)
}

func (e *I18nError) clone() *I18nError {
	c := *e
	c.MessageArgs = maps.Clone(e.MessageArgs)
	return &c
}

func (e *I18nError) WithHTTPCode(code int) *I18nError {
	c := e.clone()
	c.HTTPCode = code
	return c
}

func (e *I18nError) WithArgs(args map[string]any) *I18nError {
	c := e.clone()
	if c.MessageArgs == nil {
		c.MessageArgs = make(map[string]any, len(args))
	}
	maps.Copy(c.MessageArgs, args)
	return c
}

func (e *I18nError) WithKey(key string) *I18nError {
	c := e.clone()
	c.MessageKey = key
	return c
}

// WithCause records the underlying error and the operation it happened in.
func (e *I18nError) WithCause(cause error, op string) *I18nError {
	c := e.clone()
	c.cause = cause
	c.op = op
	return c
}

func HTTPStatusCode(code Code) int {
	switch code {
	case CodeInvalid, CodeValidationFailed, CodeMalformedJSON:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeConflict, CodeDuplicateEntry:
		return http.StatusConflict
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}

	var i18nErr *I18nError
	if errors.As(err, &i18nErr) {
		return i18nErr.Code == code
	}

	return false
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

func IsDuplicateEntry(err error) bool {
	return IsCode(err, CodeDuplicateEntry)
}

func newErr(key string, code Code, args map[string]any) *I18nError {
	return &I18nError{
		MessageKey:  key,
		MessageArgs: args,
		Code:        code,
		HTTPCode:    HTTPStatusCode(code),
	}
}

// Client errors (4xx)

func NewInvalidRequest() *I18nError {
	return newErr(i18nx.KeyInvalid, CodeInvalid, nil)
}

func NewValidationFailed() *I18nError {
	return newErr(i18nx.KeyValidationFailed, CodeValidationFailed, nil)
}

func NewValidationFieldFailed(field string) *I18nError {
	return newErr(i18nx.KeyValidationFailedField, CodeValidationFailed, map[string]any{"Field": field})
}

func NewMalformedJSON() *I18nError {
	return newErr(i18nx.KeyMalformedJSON, CodeMalformedJSON, nil)
}

func NewUnauthorized() *I18nError {
	return newErr(i18nx.KeyUnauthorized, CodeUnauthorized, nil)
}

func NewInvalidCredentials() *I18nError {
	return newErr(i18nx.KeyInvalidCredentials, CodeInvalidCredentials, nil)
}

func NewInvalidToken() *I18nError {
	return newErr(i18nx.KeyInvalidToken, CodeInvalidToken, nil)
}

func NewNotFound() *I18nError {
	return newErr(i18nx.KeyNotFound, CodeNotFound, nil)
}

func NewResourceNotFound(resourceType string) *I18nError {
	return newErr(i18nx.KeyNotFoundWithType, CodeNotFound, map[string]any{"ResourceType": resourceType})
}

func NewMethodNotAllowed() *I18nError {
	return newErr(i18nx.KeyMethodNotAllowed, CodeMethodNotAllowed, nil)
}

func NewConflict() *I18nError {
	return newErr(i18nx.KeyConflict, CodeConflict, nil)
}

func NewDuplicateEntry() *I18nError {
	return newErr(i18nx.KeyDuplicateEntry, CodeDuplicateEntry, nil)
}

func NewDuplicateEntryWithField(resourceType, field string) *I18nError {
	return newErr(i18nx.KeyDuplicateEntryWithField, CodeDuplicateEntry, map[string]any{
		"ResourceType": resourceType,
		"Field":        field,
	})
}

// Server errors (5xx)

func NewInternalError() *I18nError {
	return newErr(i18nx.KeyInternalError, CodeInternal, nil)
}

func NewServiceUnavailable() *I18nError {
	return newErr(i18nx.KeyServiceUnavailable, CodeServiceUnavailable, nil)
}

func NewUpstreamServiceError() *I18nError {
	return newErr(i18nx.KeyUpstreamServiceError, CodeUpstreamError, nil)
}

// DB

func NewNoRowsAffected() *I18nError {
	return newErr(i18nx.KeyNotFound, CodeNotFound, nil)
}
