package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestFreeze_CopiesCallerData(t *testing.T) {
	headers := map[string]string{"X-Trace": "1"}
	body := []byte(`{"prompt":"sunset"}`)
	req := Request{Method: "post", Path: "/api/videos", Headers: headers, Body: body}

	d, err := freeze(req, time.Second)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	headers["X-Trace"] = "2"
	body[2] = 'X'

	if d.method != http.MethodPost {
		t.Errorf("expected upper-cased method, got %s", d.method)
	}
	if d.headers.Get("X-Trace") != "1" {
		t.Errorf("expected header copy, got %q", d.headers.Get("X-Trace"))
	}
	if string(d.body) != `{"prompt":"sunset"}` {
		t.Errorf("expected body copy, got %s", d.body)
	}
	if d.contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", d.contentType)
	}
	if d.timeout != time.Second {
		t.Errorf("expected default timeout, got %v", d.timeout)
	}
	if d.id == "" {
		t.Error("expected request id")
	}
}

func TestFreeze_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing method", Request{Path: "/x"}},
		{"unknown method", Request{Method: "FETCH", Path: "/x"}},
		{"missing path", Request{Method: http.MethodGet}},
		{"negative timeout", Request{Method: http.MethodGet, Path: "/x", Timeout: -time.Second}},
		{"unencodable body", Request{Method: http.MethodPost, Path: "/x", Body: make(chan int)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := freeze(tt.req, time.Second); !IsValidationFailed(err) {
				t.Errorf("expected validation failure, got %v", err)
			}
		})
	}
}

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		want        string
		contentType string
	}{
		{"nil", nil, "", ""},
		{"struct", struct {
			Email string `json:"email"`
		}{"a@b.c"}, `{"email":"a@b.c"}`, "application/json"},
		{"string", "hello", "hello", "text/plain"},
		{"raw json", []byte(`[1,2]`), "[1,2]", "application/json"},
		{"raw bytes", []byte{0xff, 0x00}, "\xff\x00", "application/octet-stream"},
		{"reader", strings.NewReader("streamed"), "streamed", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := encodeBody(tt.body)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if string(data) != tt.want || ct != tt.contentType {
				t.Errorf("got %q (%s), want %q (%s)", data, ct, tt.want, tt.contentType)
			}
		})
	}
}

func TestDescriptor_BodyReusable(t *testing.T) {
	d, err := freeze(Request{Method: http.MethodPost, Path: "/x", Body: strings.NewReader("once")}, time.Second)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	for i := 0; i < 2; i++ {
		data, _ := io.ReadAll(d.bodyReader())
		if string(data) != "once" {
			t.Fatalf("read %d: got %q", i, data)
		}
	}
}

func TestDescriptor_URL(t *testing.T) {
	tests := []struct {
		base, path string
		query      map[string]string
		want       string
	}{
		{"https://api.example.com/", "/api/videos", nil, "https://api.example.com/api/videos"},
		{"https://api.example.com", "api/videos", nil, "https://api.example.com/api/videos"},
		{"https://api.example.com", "https://cdn.example.com/v.mp4", nil, "https://cdn.example.com/v.mp4"},
		{"", "http://localhost/x", map[string]string{"page": "2"}, "http://localhost/x?page=2"},
		{"https://api.example.com", "/api/videos?sort=new", map[string]string{"page": "2"}, "https://api.example.com/api/videos?sort=new&page=2"},
	}
	for _, tt := range tests {
		d, err := freeze(Request{Method: http.MethodGet, Path: tt.path, Query: tt.query}, time.Second)
		if err != nil {
			t.Fatalf("freeze: %v", err)
		}
		if got := d.url(tt.base); got != tt.want {
			t.Errorf("url(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	if StateQueuedOffline.String() != "queued_offline" {
		t.Errorf("unexpected %s", StateQueuedOffline)
	}
	if !StateSucceeded.Terminal() || !StateFailedTerminal.Terminal() || StateRetryScheduled.Terminal() {
		t.Error("unexpected terminal states")
	}
}
