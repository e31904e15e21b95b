package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"gitlab.com/ucmsv2/accounts/pkg/errorx"
)

type Envelope map[string]any

// Account payloads are a few hundred bytes.
const MaxRequestBodySize = 64 << 10

// ReadJSON decodes exactly one JSON value from the request body into v.
// Unknown fields are rejected. Every failure is a malformed JSON error
// carrying a description of what was wrong.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	const op = "httpx.ReadJSON"

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errorx.NewMalformedJSON().WithCause(describeDecodeError(err), op)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errorx.NewMalformedJSON().WithCause(fmt.Errorf("body must only contain a single JSON value: %w", err), op)
	}

	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return fmt.Errorf("body must not be empty: %w", err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("body ends in the middle of a JSON value: %w", err)
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("badly-formed JSON at offset %d: %w", syntaxErr.Offset, err)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return fmt.Errorf("field %q must be a %s: %w", typeErr.Field, typeErr.Type, err)
	case errors.As(err, &typeErr):
		return fmt.Errorf("unexpected JSON %s at offset %d: %w", typeErr.Value, typeErr.Offset, err)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("body must not be larger than %d bytes: %w", maxBytesErr.Limit, err)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s: %w", strings.TrimPrefix(err.Error(), "json: unknown field "), err)
	default:
		return fmt.Errorf("invalid JSON body: %w", err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	maps.Copy(w.Header(), headers)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(append(body, '\n'))
	return err
}

// Success writes data with "success": true added.
func Success(w http.ResponseWriter, r *http.Request, status int, data Envelope) {
	if data == nil {
		data = make(Envelope, 1)
	}
	data["success"] = true

	if err := WriteJSON(w, status, data, nil); err != nil {
		logger.ErrorContext(r.Context(), "failed to write success response", "status", status, "error", err)
	}
}
