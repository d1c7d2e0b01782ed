package component

import (
	"context"
	"errors"
	"testing"

	"github.com/influencore/apiclient/logger"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) Health { return m.health }

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() Description {
	return Description{Name: d.name, Type: "test", Details: "described"}
}

func newTestRegistry() *Registry {
	return NewRegistry(logger.NewNop())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Register(&mockComponent{name: "client"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "client"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartStopOrder(t *testing.T) {
	r := newTestRegistry()
	var events []string
	for _, name := range []string{"session", "prober", "client"} {
		r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{
		"start:session", "start:prober", "start:client",
		"stop:client", "stop:prober", "stop:session",
	}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestStartAllRollsBackOnFailure(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&mockComponent{name: "session", events: &events})
	r.Register(&mockComponent{name: "prober", events: &events, startErr: errors.New("unreachable")})
	r.Register(&mockComponent{name: "client", events: &events})

	err := r.StartAll(context.Background())
	if err == nil {
		t.Fatal("expected start error")
	}

	want := []string{"start:session", "start:prober", "stop:session"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestStopAllSkipsUnstarted(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&mockComponent{name: "client", events: &events})

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stop calls, got %v", events)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := newTestRegistry()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	r.Register(&mockComponent{name: "a", stopErr: errA})
	r.Register(&mockComponent{name: "b", stopErr: errB})
	r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestHealthAllAndGet(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "client", health: Health{Name: "client", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "prober", health: Health{Name: "prober", Status: StatusDegraded}})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Status != StatusDegraded {
		t.Errorf("unexpected health %v", health)
	}
	if r.Get("client") == nil {
		t.Error("expected to find client")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
}

func TestDescribe(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "plain"})
	r.Register(&describedComponent{mockComponent{name: "described"}})

	descs := r.Describe()
	if len(descs) != 1 || descs[0].Name != "described" {
		t.Errorf("expected only the describable component, got %v", descs)
	}
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name    string
		reports []Health
		want    HealthStatus
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Health{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"degraded wins over healthy", []Health{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", []Health{{Status: StatusUnhealthy}, {Status: StatusDegraded}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overall(tt.reports); got != tt.want {
				t.Errorf("Overall() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStartAllSkipsRunning(t *testing.T) {
	r := newTestRegistry()
	var events []string
	r.Register(&mockComponent{name: "session", events: &events})
	r.StartAll(context.Background())
	r.Register(&mockComponent{name: "client", events: &events})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("second StartAll failed: %v", err)
	}
	want := []string{"start:session", "start:client"}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("expected %v, got %v", want, events)
	}
}
