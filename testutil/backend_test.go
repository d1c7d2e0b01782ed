package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/influencore/apiclient/apierror"
	"github.com/influencore/apiclient/component"
)

func startBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend(BackendConfig{})
	T(t).Setup(b)
	return b
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestBackend_RegisterAndLogin(t *testing.T) {
	b := startBackend(t)

	resp, body := doJSON(t, http.MethodPost, b.URL()+"/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, b.URL()+"/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var auth AuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if auth.Token == "" || auth.User.Email != "ada@example.com" {
		t.Errorf("unexpected login response %+v", auth)
	}

	resp, body = doJSON(t, http.MethodGet, b.URL()+"/api/auth/me", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", resp.StatusCode, body)
	}
}

func TestBackend_DuplicateRegistrationConflicts(t *testing.T) {
	b := startBackend(t)
	if _, err := b.Register("Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, body := doJSON(t, http.MethodPost, b.URL()+"/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ADA@example.com", "password": "another-pass",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if msg, ok := apierror.ParseMessage(body); !ok || msg == "" {
		t.Errorf("expected an error message, got %s", body)
	}
}

func TestBackend_ValidationFailure(t *testing.T) {
	b := startBackend(t)

	resp, body := doJSON(t, http.MethodPost, b.URL()+"/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "not-an-email", "password": "short",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	msg, _ := apierror.ParseMessage(body)
	if !strings.Contains(msg, "email") || !strings.Contains(msg, "password") {
		t.Errorf("expected both fields in message, got %q", msg)
	}
}

func TestBackend_ProtectedRoutes(t *testing.T) {
	b := startBackend(t)
	if _, err := b.Register("Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name  string
		token func() string
		code  apierror.Code
	}{
		{"missing", func() string { return "" }, apierror.CodeUnauthorized},
		{"forged", func() string { return "not.a.jwt" }, apierror.CodeInvalidToken},
		{"expired", func() string {
			tok, err := b.IssueToken("ada@example.com", -time.Minute)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			return tok
		}, apierror.CodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodGet, b.URL()+"/api/videos", tt.token(), nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
			p, ok := apierror.ParsePayload(body)
			if !ok || p.Code != tt.code {
				t.Errorf("expected code %s, got %+v", tt.code, p)
			}
		})
	}
}

func TestBackend_Videos(t *testing.T) {
	b := startBackend(t)
	if _, err := b.Register("Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	token, err := b.IssueToken("ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp, body := doJSON(t, http.MethodPost, b.URL()+"/api/videos", token, map[string]any{
		"prompt": "sunset over the sea", "duration": 15,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, b.URL()+"/api/videos", token, map[string]any{
		"prompt": "too long", "duration": 600,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duration, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, b.URL()+"/api/videos", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Data []Video `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Style != "cinematic" || list.Data[0].Status != "queued" {
		t.Errorf("unexpected videos %+v", list.Data)
	}
}

func TestBackend_ScriptedFaults(t *testing.T) {
	b := startBackend(t)
	b.Script("GET /health", Status(http.StatusServiceUnavailable), StatusWithBody(http.StatusTeapot, "short and stout"))

	resp, _ := doJSON(t, http.MethodGet, b.URL()+"/health", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected scripted 503, got %d", resp.StatusCode)
	}
	resp, body := doJSON(t, http.MethodGet, b.URL()+"/health", "", nil)
	if resp.StatusCode != http.StatusTeapot || string(body) != "short and stout" {
		t.Errorf("expected scripted 418 body, got %d %q", resp.StatusCode, body)
	}
	resp, _ = doJSON(t, http.MethodGet, b.URL()+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected faults to be exhausted, got %d", resp.StatusCode)
	}

	if n := len(b.RequestsTo("GET /health")); n != 3 {
		t.Errorf("expected 3 recorded requests, got %d", n)
	}
}

func TestBackend_DelayFault(t *testing.T) {
	b := startBackend(t)
	b.Script("GET /health", Delay(100*time.Millisecond))

	start := time.Now()
	resp, _ := doJSON(t, http.MethodGet, b.URL()+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after delay, got %d", resp.StatusCode)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("expected delay of at least 100ms, got %v", elapsed)
	}
}

func TestBackend_DropFault(t *testing.T) {
	b := startBackend(t)
	b.Script("POST /api/auth/login", Drop())

	req, _ := http.NewRequest(http.MethodPost, b.URL()+"/api/auth/login", strings.NewReader(`{}`))
	if _, err := (&http.Client{Transport: &http.Transport{}}).Do(req); err == nil {
		t.Fatal("expected a transport error for a dropped connection")
	}
}

func TestBackend_HealthToggle(t *testing.T) {
	b := startBackend(t)
	b.SetHealthy(false)

	resp, _ := doJSON(t, http.MethodGet, b.URL()+"/health", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if h := b.Health(context.Background()); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded, got %s", h.Status)
	}
}

func TestBackend_SnapshotRestoreReset(t *testing.T) {
	b := startBackend(t)
	h := T(t)

	if _, err := b.Register("Ada", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	snap := h.Snapshot(b)

	if _, err := b.Register("Bob", "bob@example.com", "correct-horse"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.Restore(b, snap)
	if _, err := b.IssueToken("bob@example.com", time.Hour); err == nil {
		t.Error("expected bob to be gone after restore")
	}
	if _, err := b.IssueToken("ada@example.com", time.Hour); err != nil {
		t.Errorf("expected ada to survive restore: %v", err)
	}

	h.Reset(b)
	if _, err := b.IssueToken("ada@example.com", time.Hour); err == nil {
		t.Error("expected no accounts after reset")
	}
	if len(b.Requests()) != 0 {
		t.Error("expected recorded requests to be cleared")
	}
}
