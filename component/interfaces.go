package component

import "context"

// HealthStatus is the state a component reports. Degraded means the
// component works but with reduced function, e.g. the client queueing
// requests while offline.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Health is one component's report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall returns the most severe status among reports. No reports is
// healthy.
func Overall(reports []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range reports {
		if h.Status.severity() > worst.severity() {
			worst = h.Status
		}
	}
	return worst
}

// Component is a lifecycle-managed part of the client.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string
	// Start initializes and starts the component.
	Start(ctx context.Context) error
	// Stop shuts down the component and releases resources.
	Stop(ctx context.Context) error
	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is a one-line summary a component gives about itself.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable is optionally implemented by components that can summarize
// their configuration, e.g. for the CLI's status output.
type Describable interface {
	Describe() Description
}
