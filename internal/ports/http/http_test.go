package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountapp "gitlab.com/ucmsv2/accounts/internal/application/account"
	authapp "gitlab.com/ucmsv2/accounts/internal/application/auth"
	httpport "gitlab.com/ucmsv2/accounts/internal/ports/http"
	"gitlab.com/ucmsv2/accounts/pkg/env"
	"gitlab.com/ucmsv2/accounts/pkg/errorx"
	"gitlab.com/ucmsv2/accounts/tests/integration/builders"
	"gitlab.com/ucmsv2/accounts/tests/integration/fixtures"
	"gitlab.com/ucmsv2/accounts/tests/mocks"
)

type apiSuite struct {
	router   chi.Router
	manager  *accountapp.Manager
	users    *mocks.UserRepo
	notifier *mocks.Notifier
}

func newAPISuite(t *testing.T, mode env.Mode) *apiSuite {
	t.Helper()

	tokens, err := authapp.NewTokenIssuer(authapp.Args{Secret: fixtures.TestTokenSecret})
	require.NoError(t, err)

	s := &apiSuite{
		users:    mocks.NewUserRepo(),
		notifier: mocks.NewNotifier(),
	}
	s.manager = accountapp.NewManager(accountapp.Args{
		Users:         s.users,
		Verifications: mocks.NewVerificationRepo(),
		Tx:            mocks.NewTransactor(),
		Hasher:        builders.Hasher,
		Tokens:        tokens,
		Notifier:      s.notifier,
	})

	port := httpport.NewPort(httpport.Args{
		Manager: s.manager,
		Tokens:  tokens,
		Mode:    mode,
	})
	s.router = port.Route(nil)
	return s
}

type response struct {
	Code    int
	Body    map[string]any
	Headers http.Header
}

func (s *apiSuite) do(t *testing.T, method, path string, body any, token string) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	res := response{Code: w.Code, Headers: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), "body: %s", w.Body.String())
	}
	return res
}

func (s *apiSuite) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.manager.Wait(ctx))
}

func (s *apiSuite) createAccount(t *testing.T, email, password string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/v1/accounts", map[string]any{
		"email":    email,
		"password": password,
		"role":     "client",
	}, "")
	require.Equal(t, http.StatusCreated, res.Code, "body: %v", res.Body)
	return res.Body["user_id"].(string)
}

func (s *apiSuite) login(t *testing.T, email, password string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)
	return res.Body["token"].(string)
}

func (s *apiSuite) devCode(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, http.MethodGet, "/dev/accounts/verification-code/"+email, nil, "")
	require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)
	return res.Body["code"].(string)
}

func TestAPI_AccountLifecycle(t *testing.T) {
	s := newAPISuite(t, env.Test)

	userID := s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)
	s.drain(t)
	code := s.devCode(t, fixtures.ValidEmail)
	assert.Equal(t, code, s.notifier.RequireLast(t).Code)

	res := s.do(t, http.MethodGet, "/v1/accounts/verify?code="+code, nil, "")
	require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)

	res = s.do(t, http.MethodPost, "/v1/accounts/verify", map[string]any{"code": code}, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	token := s.login(t, fixtures.ValidEmail, fixtures.ValidPassword)

	res = s.do(t, http.MethodGet, "/v1/accounts/me", nil, token)
	require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)
	me := res.Body["user"].(map[string]any)
	assert.Equal(t, userID, me["id"])
	assert.Equal(t, fixtures.ValidEmail, me["email"])
	assert.Equal(t, "client", me["role"])
	assert.Equal(t, true, me["verified"])

	res = s.do(t, http.MethodPatch, "/v1/accounts/me", map[string]any{"email": fixtures.ValidEmail2}, token)
	require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)
	s.drain(t)

	res = s.do(t, http.MethodGet, "/v1/accounts/me", nil, token)
	require.Equal(t, http.StatusOK, res.Code)
	me = res.Body["user"].(map[string]any)
	assert.Equal(t, fixtures.ValidEmail2, me["email"])
	assert.Equal(t, false, me["verified"])

	newCode := s.devCode(t, fixtures.ValidEmail2)
	assert.NotEqual(t, code, newCode)
	s.notifier.AssertSentCount(t, 2)
	assert.Equal(t, fixtures.ValidEmail2, s.notifier.RequireLast(t).Email)
}

func TestAPI_CreateAccount(t *testing.T) {
	t.Parallel()

	t.Run("duplicate email", func(t *testing.T) {
		s := newAPISuite(t, env.Test)
		s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)

		res := s.do(t, http.MethodPost, "/v1/accounts", map[string]any{
			"email":    "  CLIENT@test.com ",
			"password": fixtures.ValidPassword2,
			"role":     "owner",
		}, "")

		assert.Equal(t, http.StatusConflict, res.Code)
		assert.Equal(t, string(errorx.CodeDuplicateEntry), res.Body["code"])
		assert.Equal(t, false, res.Body["success"])
	})

	t.Run("invalid fields", func(t *testing.T) {
		s := newAPISuite(t, env.Test)

		res := s.do(t, http.MethodPost, "/v1/accounts", map[string]any{
			"email":    fixtures.InvalidEmail,
			"password": fixtures.WeakPassword,
			"role":     "admin",
		}, "")

		require.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, string(errorx.CodeValidationFailed), res.Body["code"])
		fields := res.Body["errors"].(map[string]any)
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "role")
		assert.Equal(t, 0, s.users.Count())
	})

	t.Run("malformed json", func(t *testing.T) {
		s := newAPISuite(t, env.Test)

		res := s.do(t, http.MethodPost, "/v1/accounts", "not an object", "")

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, string(errorx.CodeMalformedJSON), res.Body["code"])
	})
}

func TestAPI_Login(t *testing.T) {
	t.Parallel()

	s := newAPISuite(t, env.Test)
	s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		code     errorx.Code
	}{
		{name: "wrong password", email: fixtures.ValidEmail, password: fixtures.ValidPassword2, status: http.StatusUnauthorized, code: errorx.CodeInvalidCredentials},
		{name: "unknown user", email: fixtures.ValidExternalEmail, password: fixtures.ValidPassword, status: http.StatusNotFound, code: errorx.CodeNotFound},
		{name: "missing password", email: fixtures.ValidEmail, password: "", status: http.StatusBadRequest, code: errorx.CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.do(t, http.MethodPost, "/v1/auth/login", map[string]any{
				"email":    tt.email,
				"password": tt.password,
			}, "")
			assert.Equal(t, tt.status, res.Code)
			assert.Equal(t, string(tt.code), res.Body["code"])
			assert.NotContains(t, res.Body, "token")
		})
	}
}

func TestAPI_Me_RequiresBearerToken(t *testing.T) {
	t.Parallel()

	s := newAPISuite(t, env.Test)

	tests := []struct {
		name   string
		header string
		code   errorx.Code
	}{
		{name: "no header", header: "", code: errorx.CodeUnauthorized},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", code: errorx.CodeUnauthorized},
		{name: "empty bearer", header: "Bearer ", code: errorx.CodeUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", code: errorx.CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/accounts/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tt.code), body["code"])
		})
	}
}

func TestAPI_EditMe(t *testing.T) {
	t.Parallel()

	t.Run("nothing to update", func(t *testing.T) {
		s := newAPISuite(t, env.Test)
		s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)
		token := s.login(t, fixtures.ValidEmail, fixtures.ValidPassword)

		res := s.do(t, http.MethodPatch, "/v1/accounts/me", map[string]any{}, token)

		assert.Equal(t, http.StatusBadRequest, res.Code)
		assert.Equal(t, "Nothing to update", res.Body["message"])
	})

	t.Run("password change", func(t *testing.T) {
		s := newAPISuite(t, env.Test)
		s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)
		token := s.login(t, fixtures.ValidEmail, fixtures.ValidPassword)

		res := s.do(t, http.MethodPatch, "/v1/accounts/me", map[string]any{"password": fixtures.ValidPassword2}, token)
		require.Equal(t, http.StatusOK, res.Code, "body: %v", res.Body)

		s.login(t, fixtures.ValidEmail, fixtures.ValidPassword2)
		res = s.do(t, http.MethodPost, "/v1/auth/login", map[string]any{
			"email":    fixtures.ValidEmail,
			"password": fixtures.ValidPassword,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		s := newAPISuite(t, env.Test)
		s.createAccount(t, fixtures.ValidEmail, fixtures.ValidPassword)
		s.createAccount(t, fixtures.ValidEmail2, fixtures.ValidPassword)
		token := s.login(t, fixtures.ValidEmail, fixtures.ValidPassword)

		res := s.do(t, http.MethodPatch, "/v1/accounts/me", map[string]any{"email": fixtures.ValidEmail2}, token)

		assert.Equal(t, http.StatusConflict, res.Code)
	})
}

func TestAPI_VerifyEmail_InvalidCode(t *testing.T) {
	t.Parallel()

	s := newAPISuite(t, env.Test)

	res := s.do(t, http.MethodPost, "/v1/accounts/verify", map[string]any{"code": ""}, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPost, "/v1/accounts/verify", map[string]any{"code": fixtures.UnknownCode}, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Verification not found", res.Body["message"])
}

func TestAPI_DevRoutesHiddenInProd(t *testing.T) {
	t.Parallel()

	s := newAPISuite(t, env.Prod)

	res := s.do(t, http.MethodGet, "/dev/accounts/verification-code/"+fixtures.ValidEmail, nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestAPI_Healthz(t *testing.T) {
	t.Parallel()

	s := newAPISuite(t, env.Test)

	res := s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Body["status"])
	assert.Equal(t, "application/json", res.Headers.Get("Content-Type"))
}
