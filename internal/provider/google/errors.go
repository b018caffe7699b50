package google

import (
	"errors"
	"fmt"
	"net/http"

	ai "github.com/spetersoncode/mosaic"
	"google.golang.org/genai"
)

// wrapError categorizes a Gemini API error by its canonical status, falling
// back to the HTTP code. genai.APIError exposes no headers, so no Retry-After.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.Code
	msg := apiErr.Message
	if msg == "" {
		msg = err.Error()
	}

	switch apiErr.Status {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED":
		return ai.NewTransientError(msg, code, err)
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "NOT_FOUND":
		return ai.NewUserInputError(msg, code, err)
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return ai.NewPermanentError(msg, code, err)
	}

	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return ai.NewTransientError(msg, code, err)
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

// operationError renders the error map of a finished long-running operation.
func operationError(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	if msg, ok := m["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("operation failed: %v", m)
}
