package netstate

import "sync"

// Listener is notified with the new state after every transition.
type Listener func(online bool)

type subscription struct {
	id int
	fn Listener
}

// Monitor is the process-wide network state flag.
type Monitor struct {
	mu        sync.RWMutex
	online    bool
	listeners []subscription
	nextID    int
}

// NewMonitor creates a Monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline updates the state and reports whether it changed. Listeners are
// called synchronously, in subscription order, only on an actual transition.
func (m *Monitor) SetOnline(online bool) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	listeners := make([]subscription, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(online)
	}
	return true
}

// Subscribe registers fn for state transitions. The returned function
// removes the subscription and is safe to call more than once.
func (m *Monitor) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}
