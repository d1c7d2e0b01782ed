package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/logger"
)

// exerciseStore runs the Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken on empty store, got %v", err)
	}
	if err := s.SetToken(ctx, "tok-1"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got, err := s.Token(ctx); err != nil || got != "tok-1" {
		t.Fatalf("expected tok-1, got %q, %v", got, err)
	}
	if err := s.SetToken(ctx, "tok-2"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got, _ := s.Token(ctx); got != "tok-2" {
		t.Fatalf("expected rotated token tok-2, got %q", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := s.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after Clear, got %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
}

func newMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)
	return mini
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestMemoryStore_InitialToken(t *testing.T) {
	got, err := NewMemoryStore("seed").Token(context.Background())
	if err != nil || got != "seed" {
		t.Errorf("expected seed, got %q, %v", got, err)
	}
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "session.db"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := s.SetToken(ctx, "persisted"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got, err := reopened.Token(ctx); err != nil || got != "persisted" {
		t.Errorf("expected persisted token, got %q, %v", got, err)
	}
}

func TestRedisStore(t *testing.T) {
	mini := newMiniredis(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	s := NewRedisStore(rdb, "influencore:test:token", 0)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore_TTL(t *testing.T) {
	mini := newMiniredis(t)
	s, err := DialRedis(context.Background(), RedisConfig{
		Addr:        mini.Addr(),
		Key:         "influencore:ttl",
		TTL:         time.Minute,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer s.Close()

	if err := s.SetToken(context.Background(), "short-lived"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	mini.FastForward(2 * time.Minute)
	if _, err := s.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected token to expire, got %v", err)
	}
}

func TestDialRedis_Unreachable(t *testing.T) {
	mini := newMiniredis(t)
	addr := mini.Addr()
	mini.Close()

	_, err := DialRedis(context.Background(), RedisConfig{Addr: addr, Key: "k", DialTimeout: 100 * time.Millisecond})
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Driver != DriverMemory {
		t.Errorf("expected memory driver by default, got %q", cfg.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}

	bolt := Config{Driver: DriverBolt}
	bolt.ApplyDefaults()
	if bolt.Path == "" {
		t.Error("expected default bolt path")
	}

	bad := Config{Driver: "sqlite"}
	if err := bad.Validate(); err == nil {
		t.Error("expected unknown driver to fail validation")
	}
	noPath := Config{Driver: DriverBolt}
	if err := noPath.Validate(); err == nil {
		t.Error("expected bolt driver without path to fail validation")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	mini := newMiniredis(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Driver: DriverMemory}},
		{"bolt", Config{Driver: DriverBolt, Path: filepath.Join(t.TempDir(), "s.db")}},
		{"redis", Config{Driver: DriverRedis, Redis: RedisConfig{Addr: mini.Addr()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := NewComponent(tt.cfg, logger.NewNop())

			if _, err := c.Token(ctx); !errors.Is(err, ErrNoToken) {
				t.Errorf("expected ErrNoToken before start, got %v", err)
			}
			if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
				t.Errorf("expected unhealthy before start, got %s", h.Status)
			}

			if err := c.Start(ctx); err != nil {
				t.Fatalf("Start: %v", err)
			}
			exerciseStore(t, c)
			if h := c.Health(ctx); h.Status != component.StatusHealthy {
				t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
			}
			if d := c.Describe(); d.Type != "session" {
				t.Errorf("unexpected description %+v", d)
			}
			if err := c.Stop(ctx); err != nil {
				t.Errorf("Stop: %v", err)
			}
		})
	}
}

func TestComponent_StartRejectsInvalidConfig(t *testing.T) {
	c := NewComponent(Config{Driver: "sqlite"}, logger.NewNop())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected invalid config to fail Start")
	}
	if err := c.SetToken(context.Background(), "x"); err == nil {
		t.Error("expected SetToken to fail when not started")
	}
}
