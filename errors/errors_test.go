package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	err := New(ErrCodeUnavailable, "task service down")

	if err.Code() != ErrCodeUnavailable {
		t.Errorf("Expected code UNAVAILABLE, got %s", err.Code())
	}
	if err.Category() != CategoryTransient {
		t.Errorf("Expected transient category, got %s", err.Category())
	}
	if !err.Retryable() {
		t.Error("Transient errors should be retryable by default")
	}
	if err.HTTPStatus() != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", err.HTTPStatus())
	}
}

func TestOptions(t *testing.T) {
	err := Forbidden("signature mismatch",
		WithTaskID("4711"),
		WithLabel("K100"),
		WithMetadata("sig", "deadbeef"),
	)

	if err.TaskID() != "4711" {
		t.Errorf("Expected task ID 4711, got %s", err.TaskID())
	}
	if err.Label() != "K100" {
		t.Errorf("Expected label K100, got %s", err.Label())
	}
	if err.Metadata()["sig"] != "deadbeef" {
		t.Error("Expected sig metadata to be set")
	}
	if err.HTTPStatus() != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", err.HTTPStatus())
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := NotFound("snapshot not found")
	outer := Wrap(inner, "load list lookup failed")

	if outer.Code() != ErrCodeNotFound {
		t.Errorf("Expected wrapped error to keep NOT_FOUND, got %s", outer.Code())
	}
	if !stderrors.Is(outer, inner) {
		t.Error("Wrapped error should match inner via errors.Is")
	}
	if !Is(outer, ErrCodeNotFound) {
		t.Error("Is should find the code through the chain")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapPlainError(t *testing.T) {
	err := Wrap(fmt.Errorf("disk full"), "log write failed")

	if err.Code() != ErrCodeInternal {
		t.Errorf("Plain errors should wrap as INTERNAL, got %s", err.Code())
	}
	if IsRetryable(err) {
		t.Error("Internal errors should not be retryable")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUnavailable, http.StatusBadGateway},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeRateLimit, http.StatusTooManyRequests},
		{ErrCodePanic, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.code, tc.status, got)
		}
	}

	// Non-structured errors default to 500.
	if HTTPStatus(fmt.Errorf("plain")) != http.StatusInternalServerError {
		t.Error("Plain error should map to 500")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := Unavailable("close failed",
		WithTaskID("4711"),
		WithCause(fmt.Errorf("connection refused")),
	)

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal failed: %v", jerr)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("Unmarshal failed: %v", jerr)
	}
	if decoded["code"] != "UNAVAILABLE" {
		t.Errorf("Expected code UNAVAILABLE in JSON, got %v", decoded["code"])
	}
	if decoded["task_id"] != "4711" {
		t.Errorf("Expected task_id in JSON, got %v", decoded["task_id"])
	}
	if decoded["retryable"] != true {
		t.Error("Expected retryable true in JSON")
	}
}

func TestRecoverPanic(t *testing.T) {
	err := RecoverPanic("boom")
	if err.Code() != ErrCodePanic {
		t.Errorf("Expected PANIC code, got %s", err.Code())
	}

	if RecoverPanic(nil) != nil {
		t.Error("RecoverPanic(nil) should return nil")
	}
}

func TestWithRetryableOverride(t *testing.T) {
	err := Internal("flaky subsystem", WithRetryable(true))
	if !err.Retryable() {
		t.Error("Explicit retryable override should win over category default")
	}
}
