package acterr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	err := New(CodeToolNotFound, "no such tool")
	if err.Code != CodeToolNotFound {
		t.Errorf("Code = %v, want %v", err.Code, CodeToolNotFound)
	}
	if err.Retryable {
		t.Error("New() should not be retryable")
	}
	if err.Error() != "tool.not_found: no such tool" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	err := Retryable(CodeHTTPRateLimited, "429")
	if !err.Retryable {
		t.Error("Retryable() should set Retryable=true")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeLLMUnknown, cause)
	if !errors.Is(err, cause) {
		t.Error("Wrap() should preserve Unwrap chain for errors.Is")
	}
}

func TestIsAndCodeOf(t *testing.T) {
	err := New(CodeTaskBusy, "busy")
	wrapped := fmt.Errorf("context: %w", err)

	if !Is(wrapped, CodeTaskBusy) {
		t.Error("Is() should see through fmt.Errorf wrapping")
	}
	if Is(wrapped, CodeTaskPlanFailed) {
		t.Error("Is() should not match a different code")
	}

	code, ok := CodeOf(wrapped)
	if !ok || code != CodeTaskBusy {
		t.Errorf("CodeOf() = (%v, %v), want (%v, true)", code, ok, CodeTaskBusy)
	}

	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Error("CodeOf() should fail for a plain error")
	}
}
