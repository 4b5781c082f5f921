package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var errEmptyBody = errors.New("empty request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respond writes a success body and records the outcome.
func respond(w http.ResponseWriter, operation string, v any) {
	metrics.Operations.WithLabelValues(operation, "ok").Inc()
	writeJSON(w, http.StatusOK, v)
}

// fail writes an error body. 5xx causes are logged; the caller only sees
// the generic message.
func fail(w http.ResponseWriter, r *http.Request, operation string, status int, message, code string, cause error) {
	outcome := code
	if outcome == "" {
		outcome = http.StatusText(status)
	}
	metrics.Operations.WithLabelValues(operation, outcome).Inc()

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(cause).Str("operation", operation).Int("status", status).Msg("operation failed")
	} else {
		logger.Debug().Err(cause).Str("operation", operation).Int("status", status).Msg("operation rejected")
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// decode reads a JSON body into v. An empty body is reported as errEmptyBody
// so callers that accept no body can ignore it.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}
