package httpclient

// State is a step in a request's lifecycle.
type State int

const (
	StateCreated State = iota
	StateDispatching
	StateRetryScheduled
	StateQueuedOffline
	StateSucceeded
	StateFailedTerminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDispatching:
		return "dispatching"
	case StateRetryScheduled:
		return "retry_scheduled"
	case StateQueuedOffline:
		return "queued_offline"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailedTerminal
}

// StateChange is reported to a StateObserver on every transition.
type StateChange struct {
	RequestID string
	Method    string
	Path      string
	State     State
	// Attempt is the 1-indexed attempt the transition belongs to, 0 before
	// the first dispatch.
	Attempt int
	// Err is set for RetryScheduled and FailedTerminal.
	Err error
}

// StateObserver receives state transitions. It is called synchronously from
// the goroutine driving the request and must not block.
type StateObserver func(StateChange)
