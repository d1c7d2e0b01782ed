package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{400, KindValidationFailed, false},
		{401, KindUnauthorized, false},
		{403, KindUnknown, false},
		{404, KindUnknown, false},
		{409, KindConflict, false},
		{422, KindValidationFailed, false},
		{429, KindRateLimited, true},
		{500, KindServerError, false},
		{503, KindServerError, false},
		{302, KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := ClassifyStatusCode(tt.status, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, err.Kind)
			}
			if err.Retryable() != tt.retryable {
				t.Errorf("expected retryable=%v", tt.retryable)
			}
			if err.Message != fmt.Sprintf("HTTP %d", tt.status) {
				t.Errorf("expected fallback message, got %q", err.Message)
			}
		})
	}

	if err := ClassifyStatusCode(204, nil); err != nil {
		t.Errorf("expected nil for 2xx, got %v", err)
	}
}

func TestClassifyStatusCode_PayloadMessage(t *testing.T) {
	err := ClassifyStatusCode(409, []byte(`{"error":{"code":"ALREADY_EXISTS","message":"A account with these details already exists."}}`))
	if err.Message != "A account with these details already exists." {
		t.Errorf("unexpected message %q", err.Message)
	}
	if string(err.Body) == "" {
		t.Error("expected body to be kept")
	}
}

func TestKindRetryable(t *testing.T) {
	retryable := map[Kind]bool{
		KindTimeout:            true,
		KindNetwork:            true,
		KindRateLimited:        true,
		KindNetworkUnavailable: false,
		KindUnauthorized:       false,
		KindConflict:           false,
		KindValidationFailed:   false,
		KindServerError:        false,
		KindUnknown:            false,
	}
	for k, want := range retryable {
		if k.Retryable() != want {
			t.Errorf("%s: expected retryable=%v", k, want)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("login: %w", newNetworkError(cause))

	if !IsNetwork(wrapped) || !IsRetryable(wrapped) {
		t.Error("expected wrapped network error to be detected")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("expected cause to be reachable")
	}
	if KindOf(wrapped) != KindNetwork {
		t.Errorf("expected network kind, got %s", KindOf(wrapped))
	}
	if KindOf(context.Canceled) != KindUnknown || IsRetryable(context.Canceled) {
		t.Error("expected plain errors to be unknown and not retryable")
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Kind: KindConflict, StatusCode: 409, Message: "duplicate"}
	if got := e.Error(); got != "httpclient: conflict (HTTP 409): duplicate" {
		t.Errorf("unexpected message %q", got)
	}
	e = newTimeoutError(context.DeadlineExceeded, defaultTimeout)
	if got := e.Error(); got != "httpclient: timeout: request timed out after 30s" {
		t.Errorf("unexpected message %q", got)
	}
}
