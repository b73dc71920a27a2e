package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return FromZerolog(zerolog.New(buf), "test")
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return out
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "nope", Format: "json"}, "svc")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).WithComponent("geocode").Info("hello", Fields("tier", 2))

	out := decodeLine(t, &buf)
	if out[FieldComponent] != "geocode" {
		t.Errorf("expected component field, got %v", out)
	}
	if out["tier"] != float64(2) {
		t.Errorf("expected tier=2, got %v", out["tier"])
	}
}

func TestWithContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	bufferLogger(&buf).WithContext(ctx).Info("x")

	if out := decodeLine(t, &buf); out[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id, got %v", out)
	}
}

func TestWithStackCarriesTrace(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).WithStack(errors.New("decode failed")).Error("inference failed")

	out := decodeLine(t, &buf)
	if out["error"] != "decode failed" {
		t.Errorf("expected error field, got %v", out["error"])
	}
	if _, ok := out["stack"]; !ok {
		t.Errorf("expected stack field, got %v", out)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}
