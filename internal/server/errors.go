package server

import (
	"encoding/json"
	"errors"
	"net/http"

	ai "github.com/spetersoncode/mosaic"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Details string         `json:"details,omitempty"`
	Kind    ai.FailureKind `json:"kind"`
}

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind ai.FailureKind) int {
	switch kind {
	case ai.FailureMissingCredentials:
		return http.StatusUnauthorized
	case ai.FailureInvalidInput, ai.FailureUnsupportedSource:
		return http.StatusBadRequest
	case ai.FailureNoContent:
		return http.StatusUnprocessableEntity
	case ai.FailureTimeout:
		return http.StatusGatewayTimeout
	case ai.FailureCancelled:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ai.KindOf(err)
	body := errorResponse{Error: err.Error(), Kind: kind}
	var f *ai.Failure
	if errors.As(err, &f) {
		body.Details = f.Details
	}
	status := StatusFor(kind)
	s.requestLogger(r).Warn("request failed", "status", status, "kind", kind, "error", err)
	writeJSON(w, status, body)
}

func invalidInput(msg string, cause error) error {
	return ai.NewFailure(ai.FailureInvalidInput, msg, cause)
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidInput("Invalid request body.", err)
	}
	return nil
}
