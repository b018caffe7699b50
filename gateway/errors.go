package gateway

import (
	"context"
	"errors"
	"strings"

	ai "github.com/spetersoncode/mosaic"
)

// providerFailure converts a provider error into a ProviderError failure
// whose message is the provider's own text. Context cancellation maps to
// Cancelled; existing failures pass through.
func providerFailure(err error) error {
	var f *ai.Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.Canceled) {
		return ai.NewFailure(ai.FailureCancelled, "Generation was cancelled.", err)
	}
	return ai.NewFailure(ai.FailureProviderError, providerMessage(err), err)
}

// providerMessage extracts the user-facing part of a provider error.
func providerMessage(err error) string {
	var pe *ai.Error
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return err.Error()
}

// credentialProblem reports whether the provider's message names the API
// key. Status codes alone are not enough: a 403 also covers quota and
// region refusals.
func credentialProblem(err error) bool {
	return strings.Contains(providerMessage(err), "API key")
}

func noContent(detail error) error {
	return ai.NewFailure(ai.FailureNoContent, "No images were generated. Try a different prompt.", detail)
}
