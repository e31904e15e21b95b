package http

import (
	"net/http"
	"testing"

	accountshttp "gitlab.com/ucmsv2/accounts/internal/ports/http/accounts"
)

func (h *Helper) CreateAccount(t *testing.T, email, password, role string) *Response {
	return h.Do(t, Request{
		Method: http.MethodPost,
		Path:   "/v1/accounts",
		Body: accountshttp.CreateAccountRequest{
			Email:    email,
			Password: password,
			Role:     role,
		},
	})
}

func (h *Helper) Login(t *testing.T, email, password string) *Response {
	return h.Do(t, Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/login",
		Body:   accountshttp.LoginRequest{Email: email, Password: password},
	})
}

func (h *Helper) GetMe(t *testing.T, token string) *Response {
	return h.Do(t, NewRequest(http.MethodGet, "/v1/accounts/me").WithBearer(token).Build())
}

func (h *Helper) EditMe(t *testing.T, token string, req accountshttp.EditProfileRequest) *Response {
	return h.Do(t, NewRequest(http.MethodPatch, "/v1/accounts/me").WithBearer(token).WithJSON(req).Build())
}

func (h *Helper) VerifyEmail(t *testing.T, code string) *Response {
	return h.Do(t, Request{
		Method: http.MethodPost,
		Path:   "/v1/accounts/verify",
		Body:   accountshttp.VerifyEmailRequest{Code: code},
	})
}

func (h *Helper) VerifyEmailLink(t *testing.T, code string) *Response {
	return h.Do(t, NewRequest(http.MethodGet, "/v1/accounts/verify").WithQuery("code", code).Build())
}

func (h *Helper) GetVerificationCode(t *testing.T, email string) *Response {
	return h.Do(t, Request{
		Method: http.MethodGet,
		Path:   "/dev/accounts/verification-code/" + email,
	})
}
