package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestI18nError_WithMethodsDoNotMutateOriginal(t *testing.T) {
	base := NewNotFound()

	withArgs := base.WithArgs(map[string]any{"ResourceType": "user"})
	withKey := base.WithKey("not_found_with_type")
	withCode := base.WithHTTPCode(http.StatusGone)
	withCause := base.WithCause(errors.New("boom"), "pkg.Op")

	assert.Empty(t, base.MessageArgs)
	assert.Equal(t, "not_found", base.MessageKey)
	assert.Equal(t, http.StatusNotFound, base.HTTPStatusCode())
	assert.Nil(t, errors.Unwrap(base))

	assert.Equal(t, "user", withArgs.MessageArgs["ResourceType"])
	assert.Equal(t, "not_found_with_type", withKey.MessageKey)
	assert.Equal(t, http.StatusGone, withCode.HTTPStatusCode())
	assert.EqualError(t, withCause, "pkg.Op: [NOT_FOUND] not_found: boom")
}

func TestI18nError_Is(t *testing.T) {
	cause := errors.New("no rows")
	err := fmt.Errorf("wrapped: %w", NewNotFound().WithCause(cause, "repo.Get"))

	assert.ErrorIs(t, err, NewNotFound())
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, NewDuplicateEntry())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDuplicateEntry(err))
	assert.False(t, IsNotFound(nil))
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalid, http.StatusBadRequest},
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateEntry, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{Code("UNKNOWN"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.code))
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *I18nError
		code   Code
		status int
	}{
		{"invalid request", NewInvalidRequest(), CodeInvalid, http.StatusBadRequest},
		{"conflict", NewConflict(), CodeConflict, http.StatusConflict},
		{"service unavailable", NewServiceUnavailable(), CodeServiceUnavailable, http.StatusServiceUnavailable},
		{"upstream", NewUpstreamServiceError(), CodeUpstreamError, http.StatusBadGateway},
		{"resource not found", NewResourceNotFound("user"), CodeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatusCode())
			assert.NotEmpty(t, tt.err.MessageKey)
		})
	}
}

func TestI18nError_Localize(t *testing.T) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	_, err := bundle.ParseMessageFileBytes([]byte(`not_found_with_type = "{{.ResourceType}} not found"`), "en.toml")
	require.NoError(t, err)
	loc := i18n.NewLocalizer(bundle, "en")

	assert.Equal(t, "user not found", NewResourceNotFound("user").Localize(loc))
	assert.Equal(t, "missing_key", NewNotFound().WithKey("missing_key").Localize(loc), "unknown keys fall back to the key itself")
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "op"))

	inner := NewDuplicateEntry()
	err := Wrap(Wrap(inner, "repo.SaveUser"), "account.Manager.CreateAccount")

	assert.EqualError(t, err, "account.Manager.CreateAccount: repo.SaveUser: [DUPLICATE_ENTRY] duplicate_entry")
	assert.True(t, IsDuplicateEntry(err))
	assert.Equal(t, "repo.SaveUser", Op(err))
}
