package openai

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/mosaic"
)

// contentPolicyCode is the error code returned when the images endpoint
// refuses a prompt.
const contentPolicyCode = "content_policy_violation"

// wrapError converts an SDK error into a categorized error carrying the
// API's own message, so the gateway can show it unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	code := apiErr.StatusCode
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(code)
	}
	if msg == "" {
		msg = err.Error()
	}

	switch {
	case apiErr.Code == contentPolicyCode:
		return ai.NewUserInputError(msg, code, err)
	case code == http.StatusTooManyRequests || code >= 500:
		if d := retryAfter(apiErr.Response); d > 0 {
			return ai.NewTransientErrorWithRetry(msg, code, d, err)
		}
		return ai.NewTransientError(msg, code, err)
	case code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

// retryAfter reads a Retry-After header given in seconds or as a date.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}
