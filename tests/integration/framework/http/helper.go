package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper drives the API in process through its http.Handler.
type Helper struct {
	handler http.Handler
}

func NewHelper(handler http.Handler) *Helper {
	return &Helper{handler: handler}
}

type Request struct {
	Path    string
	Method  string
	Body    any
	Headers map[string]string
	Query   map[string]string
}

func (h *Helper) Do(t *testing.T, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	httpReq := httptest.NewRequest(req.Method, req.Path, body)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, httpReq)

	return &Response{ResponseRecorder: w, t: t}
}

// Response wraps the recorded reply with chainable assertions. Every reply of
// the API is a JSON envelope.
type Response struct {
	*httptest.ResponseRecorder
	t *testing.T
}

func (r *Response) envelope() map[string]any {
	var env map[string]any
	_ = json.Unmarshal(r.Body.Bytes(), &env)
	return env
}

func (r *Response) AssertStatus(expected int) *Response {
	r.t.Helper()
	assert.Equal(r.t, expected, r.Code, "unexpected status code, body: %s", r.Body.String())
	return r
}

func (r *Response) AssertSuccess() *Response {
	r.t.Helper()
	r.AssertStatus(http.StatusOK)
	assert.Equal(r.t, true, r.envelope()["success"], "expected success=true")
	return r
}

func (r *Response) AssertCreated() *Response {
	r.t.Helper()
	r.AssertStatus(http.StatusCreated)
	assert.Equal(r.t, true, r.envelope()["success"], "expected success=true")
	return r
}

// AssertError checks the status and the machine readable code of a failure.
func (r *Response) AssertError(expectedStatus int, expectedCode string) *Response {
	r.t.Helper()
	r.AssertStatus(expectedStatus)

	env := r.envelope()
	assert.Equal(r.t, false, env["success"], "expected success=false")
	assert.Equal(r.t, expectedCode, env["code"], "unexpected error code")
	return r
}

func (r *Response) AssertMessage(expected string) *Response {
	r.t.Helper()
	assert.Equal(r.t, expected, r.envelope()["message"], "unexpected message in response")
	return r
}

// AssertFieldError checks the per-field message of a validation failure.
func (r *Response) AssertFieldError(field string) *Response {
	r.t.Helper()

	errs, ok := r.envelope()["errors"].(map[string]any)
	require.True(r.t, ok, "expected an errors object in %s", r.Body.String())
	assert.Contains(r.t, errs, field, "expected a validation error for %s", field)
	return r
}

// Field returns a top level string field of the JSON body.
func (r *Response) Field(key string) string {
	r.t.Helper()

	v, ok := r.envelope()[key].(string)
	require.True(r.t, ok, "expected %q to be a string in %s", key, r.Body.String())
	return v
}

func (r *Response) ParseJSON(v any) *Response {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.Body.Bytes(), v), "failed to parse JSON response: %s", r.Body.String())
	return r
}

type RequestBuilder struct {
	req Request
}

func NewRequest(method, path string) *RequestBuilder {
	return &RequestBuilder{req: Request{
		Path:    path,
		Method:  method,
		Headers: make(map[string]string),
		Query:   make(map[string]string),
	}}
}

func (b *RequestBuilder) WithJSON(body any) *RequestBuilder {
	b.req.Body = body
	return b
}

func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.req.Headers[key] = value
	return b
}

func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.req.Query[key] = value
	return b
}

func (b *RequestBuilder) WithBearer(token string) *RequestBuilder {
	return b.WithHeader("Authorization", "Bearer "+token)
}

func (b *RequestBuilder) WithLanguage(tag string) *RequestBuilder {
	return b.WithHeader("Accept-Language", tag)
}

func (b *RequestBuilder) Build() Request {
	return b.req
}
