package httpclient

import (
	"context"
	"testing"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/netstate"
)

func TestComponent_Lifecycle(t *testing.T) {
	monitor := netstate.NewMonitor(true)
	comp := NewComponent(DefaultConfig("https://api.example.com"), WithMonitor(monitor))
	ctx := context.Background()

	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if comp.Client() == nil {
		t.Fatal("expected client after start")
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}

	monitor.SetOnline(false)
	if h := comp.Health(ctx); h.Status != component.StatusDegraded {
		t.Errorf("expected degraded while offline, got %s", h.Status)
	}

	if d := comp.Describe(); d.Details != "https://api.example.com" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := comp.Stop(ctx); err != nil {
		t.Errorf("stop: %v", err)
	}
}

func TestComponent_StartFailsOnInvalidConfig(t *testing.T) {
	comp := NewComponent(Config{BaseURL: "::bad::"})
	if err := comp.Start(context.Background()); err == nil {
		t.Error("expected start to fail")
	}
	if err := comp.Stop(context.Background()); err != nil {
		t.Errorf("expected stop without start to succeed, got %v", err)
	}
}
