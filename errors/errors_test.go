package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if New(ErrCodeNotFound, "nope", http.StatusNotFound).Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_NotFound(t *testing.T) {
	err := NotFound("memory", "123")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["resource"] != "memory" || err.Details["id"] != "123" {
		t.Errorf("unexpected details: %v", err.Details)
	}
	if _, ok := NotFound("memory", "").Details["id"]; ok {
		t.Error("expected no id detail for empty id")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := ConversionFailed("Invalid data found", cause)
	msg := err.Error()
	if !strings.Contains(msg, string(ErrCodeConversionFailed)) || !strings.Contains(msg, "exit status 1") {
		t.Errorf("unexpected message %q", msg)
	}
	if err.Details["output"] != "Invalid data found" {
		t.Errorf("expected tool output in details, got %v", err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := InferenceFailed(sentinel)
	if !stderrors.Is(err, sentinel) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestTranscriptionErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		status    int
		retryable bool
	}{
		{"tool not found", ToolNotFound("ffmpeg", nil), http.StatusInternalServerError, false},
		{"conversion", ConversionFailed("", nil), http.StatusUnprocessableEntity, false},
		{"model load", ModelLoadFailed("small", nil), http.StatusServiceUnavailable, true},
		{"inference", InferenceFailed(nil), http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v", tc.retryable)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	if From(nil) != nil {
		t.Error("expected nil for nil error")
	}
	wrapped := fmt.Errorf("handler: %w", NotFound("photo", "x"))
	if got := From(wrapped); got.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND through wrapping, got %s", got.Code)
	}
	if got := From(stderrors.New("boom")); got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
}

func TestToResponse(t *testing.T) {
	resp := MissingField("file").ToResponse()
	if resp.Error.Code != ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "file" {
		t.Errorf("expected field detail, got %v", resp.Error.Details)
	}
}
