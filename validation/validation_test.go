package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/influencore/apiclient/apierror"
)

type probeConfig struct {
	URL      string        `mapstructure:"url" validate:"required,url"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type sampleConfig struct {
	Driver     string      `mapstructure:"driver" validate:"oneof=memory bolt redis"`
	MaxRetries int         `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Probe      probeConfig `mapstructure:"probe"`
}

type sampleRequest struct {
	Method string `json:"method" validate:"required,http_method"`
	Path   string `json:"path" validate:"required"`
	Note   string
}

func TestValidate_Valid(t *testing.T) {
	cfg := sampleConfig{
		Driver:     "bolt",
		MaxRetries: 3,
		Probe:      probeConfig{URL: "http://localhost:8089/health", Interval: time.Second},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := sampleConfig{Driver: "sqlite", MaxRetries: 11}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	appErr, ok := apierror.AsAppError(err)
	if !ok {
		t.Fatalf("expected *apierror.AppError, got %T", err)
	}
	if appErr.Code != apierror.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}

	fields := Fields(err)
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"driver":         "must be one of: memory bolt redis",
		"max_retries":    "must be at most 10",
		"probe.url":      "is required",
		"probe.interval": "must be greater than 0",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("field %s: expected %q, got %q (all: %v)", field, msg, got[field], got)
		}
	}
}

func TestValidate_CustomHTTPMethod(t *testing.T) {
	if err := Validate(sampleRequest{Method: "post", Path: "/api/videos"}); err != nil {
		t.Errorf("lowercase method should be accepted, got %v", err)
	}
	err := Validate(sampleRequest{Method: "FETCH", Path: "/api/videos"})
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	if !strings.Contains(err.Error(), "method: must be an HTTP method") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidate_JSONTagNames(t *testing.T) {
	err := Validate(sampleRequest{Method: "GET"})
	fields := Fields(err)
	if len(fields) != 1 || fields[0].Field != "path" {
		t.Errorf("expected a single path error, got %v", fields)
	}
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if Fields(err) != nil {
		t.Error("expected no field errors for non-struct input")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxRetries": "max_retries",
		"URL":        "u_r_l",
		"timeout":    "timeout",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
