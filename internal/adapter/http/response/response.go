package response

import (
	"encoding/json"
	"net/http"
)

// Error codes shared by handlers, middleware and the API client.
const (
	CodeValidation        = "validation_failed"
	CodeUnauthenticated   = "unauthenticated"
	CodeInvalidCredential = "invalid_credentials"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidTransition = "invalid_transition"
	CodeStorage           = "storage_unavailable"
	CodeRateLimited       = "rate_limited"
	CodeNotImplemented    = "not_implemented"
	CodeInternal          = "internal_error"
)

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

var encodeFailure = []byte(`{"error":{"code":"` + CodeInternal + `","message":"failed to encode response"}}` + "\n")

// JSON encodes v before writing the status so an unencodable payload turns
// into a 500 instead of a success status with a truncated body.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailure)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func Error(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	JSON(w, status, ErrorEnvelope{Error: ErrorBody{Code: code, Message: message, Fields: fields}})
}
