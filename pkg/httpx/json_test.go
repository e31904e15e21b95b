package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/ucmsv2/accounts/pkg/errorx"
)

type payload struct {
	Email string `json:"email"`
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"email":"a@x.com"}`},
		{name: "empty body", body: ``, wantErr: true},
		{name: "syntax error", body: `{"email":`, wantErr: true},
		{name: "wrong type", body: `{"email":42}`, wantErr: true},
		{name: "unknown field", body: `{"email":"a@x.com","admin":true}`, wantErr: true},
		{name: "two values", body: `{"email":"a@x.com"}{}`, wantErr: true},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var p payload
			err := ReadJSON(w, r, &p)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "a@x.com", p.Email)
				return
			}
			require.Error(t, err)
			assert.True(t, errorx.IsCode(err, errorx.CodeMalformedJSON), "got %v", err)
		})
	}
}

func TestSuccess(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	Success(w, r, http.StatusCreated, Envelope{"id": "42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"42","success":true}`, w.Body.String())
}
