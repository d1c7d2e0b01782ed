package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/influencore/apiclient/logger"
)

const defaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops the ones
// that are running in reverse. Names must be unique.
type Registry struct {
	mu          sync.Mutex
	components  []Component
	names       map[string]struct{}
	running     []Component
	log         *logger.Logger
	stopTimeout time.Duration
}

// NewRegistry creates an empty registry logging through log. A nil log uses
// the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.WithComponent("registry")
	}
	return &Registry{
		names:       map[string]struct{}{},
		log:         log,
		stopTimeout: defaultStopTimeout,
	}
}

// Register appends c. Register dependencies before their dependents.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.names[c.Name()]; dup {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.components = append(r.components, c)
	return nil
}

// StartAll starts every component that is not already running. When one
// fails, everything started so far is stopped before the error returns.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components {
		if r.isRunning(c) {
			continue
		}
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			_ = r.unwind(ctx)
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.running = append(r.running, c)
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, c.Name()))
	}
	return nil
}

// StopAll stops running components newest first. Every component gets its
// own stop timeout; failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unwind(ctx)
}

func (r *Registry) unwind(ctx context.Context) error {
	var errs []error
	for len(r.running) > 0 {
		last := len(r.running) - 1
		c := r.running[last]
		r.running = r.running[:last]

		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) isRunning(c Component) bool {
	for _, rc := range r.running {
		if rc.Name() == c.Name() {
			return true
		}
	}
	return false
}

func (r *Registry) snapshot() []Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Component(nil), r.components...)
}

// HealthAll asks every registered component for its health, in
// registration order. Checks run outside the registry lock.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	all := r.snapshot()
	reports := make([]Health, len(all))
	for i, c := range all {
		reports[i] = c.Health(ctx)
	}
	return reports
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	for _, c := range r.snapshot() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Describe collects descriptions from components implementing Describable.
func (r *Registry) Describe() []Description {
	var out []Description
	for _, c := range r.snapshot() {
		if d, ok := c.(Describable); ok {
			out = append(out, d.Describe())
		}
	}
	return out
}
