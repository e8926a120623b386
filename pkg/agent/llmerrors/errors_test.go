package llmerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected string
	}{
		{ErrorTypeRateLimit, "rate_limit"},
		{ErrorTypeTransient, "transient"},
		{ErrorTypeEmptyResponse, "empty_response"},
		{ErrorTypeResponse, "response"},
		{ErrorTypeAuth, "auth"},
		{ErrorTypeBadPrompt, "bad_prompt"},
		{ErrorTypeUnknown, "unknown"},
		{ErrorType(99), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.expected {
			t.Errorf("ErrorType(%d).String(): expected %q, got %q", tt.errType, tt.expected, got)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(ErrorTypeRateLimit, "rate limit exceeded")
	if !strings.Contains(err.Error(), "rate_limit") || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("unexpected message %q", err.Error())
	}

	err = NewErrorWithStatus(ErrorTypeAuth, 401, "")
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("expected status in message, got %q", err.Error())
	}

	cause := errors.New("underlying failure")
	err = NewErrorWithCause(ErrorTypeTransient, cause, "")
	if !strings.Contains(err.Error(), "underlying failure") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeTransient, ErrorTypeEmptyResponse, ErrorTypeResponse, ErrorTypeUnknown}
	for _, et := range retryable {
		if !NewError(et, "x").IsRetryable() {
			t.Errorf("%s should be retryable", et)
		}
	}

	for _, et := range []ErrorType{ErrorTypeAuth, ErrorTypeBadPrompt} {
		if NewError(et, "x").IsRetryable() {
			t.Errorf("%s should not be retryable", et)
		}
	}
}

func TestGetRetryConfig(t *testing.T) {
	cfg := NewError(ErrorTypeTransient, "x").GetRetryConfig()
	if cfg.MaxRetries != DefaultTransientRetries {
		t.Errorf("expected %d retries, got %d", DefaultTransientRetries, cfg.MaxRetries)
	}

	cfg = NewError(ErrorTypeAuth, "x").GetRetryConfig()
	if cfg.MaxRetries != 0 {
		t.Errorf("auth errors get no retries, got %d", cfg.MaxRetries)
	}
}

func TestIsAndTypeOf(t *testing.T) {
	err := NewError(ErrorTypeRateLimit, "slow down")
	wrapped := fmt.Errorf("call failed: %w", err)

	if !Is(wrapped, ErrorTypeRateLimit) {
		t.Error("Is should unwrap to the classified type")
	}
	if Is(wrapped, ErrorTypeAuth) {
		t.Error("Is should not match a different type")
	}
	if Is(errors.New("plain"), ErrorTypeRateLimit) {
		t.Error("Is should not match unclassified errors")
	}

	if got := TypeOf(wrapped); got != ErrorTypeRateLimit {
		t.Errorf("expected rate_limit, got %s", got)
	}
	if got := TypeOf(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("expected unknown, got %s", got)
	}

	if !IsAuth(NewError(ErrorTypeAuth, "bad key")) {
		t.Error("IsAuth should detect auth errors")
	}
	if IsAuth(err) {
		t.Error("IsAuth should reject non-auth errors")
	}
}

func TestSanitizePrompt(t *testing.T) {
	short := "a short prompt"
	if got := SanitizePrompt(short, 100); got != short {
		t.Errorf("short prompts pass through, got %q", got)
	}

	long := strings.Repeat("abcdefghij", 100)
	got := SanitizePrompt(long, 200)
	if !strings.Contains(got, "hash:") {
		t.Error("expected a correlation hash for long prompts")
	}
	if !strings.Contains(got, fmt.Sprintf("[%d chars", len(long))) {
		t.Error("expected the full length in the summary")
	}
	if len(got) >= len(long) {
		t.Error("sanitized form should be shorter than the prompt")
	}

	// Hash-only mode must not panic on content shorter than the excerpt size.
	if got := SanitizePrompt("tiny", 0); !strings.Contains(got, "hash:") {
		t.Errorf("expected hash form, got %q", got)
	}

	// Same content gives the same hash for correlation across retries.
	a := SanitizePrompt(long, 0)
	b := SanitizePrompt(long, 0)
	if a != b {
		t.Error("sanitized form must be deterministic")
	}
}
