package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"

	ai "github.com/spetersoncode/mosaic"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

type mockAPIError struct {
	code int
}

func (e *mockAPIError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *mockAPIError) StatusCode() int { return e.code }

type mockNetError struct {
	timeout bool
}

func (e *mockNetError) Error() string   { return "net" }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

var _ net.Error = (*mockNetError)(nil)

func TestStatusOf(t *testing.T) {
	code, ok := statusOf(fmt.Errorf("wrapped: %w", &mockAPIError{code: 502}))
	assert.True(t, ok)
	assert.Equal(t, 502, code)

	code, ok = statusOf(genai.APIError{Code: 429})
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	_, ok = statusOf(errors.New("no status"))
	assert.False(t, ok)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"categorized transient", ai.NewTransientError("busy", 503, nil), true},
		{"categorized permanent wins over message", ai.NewPermanentError("timeout talking to auth", 401, nil), false},
		{"status coder 429", &mockAPIError{code: 429}, true},
		{"status coder 400", &mockAPIError{code: 400}, false},
		{"classified failure", ai.NewFailure(ai.FailureTimeout, "timeout waiting for video", nil), false},
		{"genai api error 503", genai.APIError{Code: 503, Message: "overloaded"}, true},
		{"genai api error 400", genai.APIError{Code: 400, Message: "bad"}, false},
		{"net timeout", &mockNetError{timeout: true}, true},
		{"url error wrapping reset", &url.Error{Op: "Post", URL: "https://x", Err: syscall.ECONNRESET}, true},
		{"message pattern", errors.New("upstream: service unavailable"), true},
		{"context canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"plain", errors.New("content policy violation"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
