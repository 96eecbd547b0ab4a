package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Healthy is shorthand for a healthy report.
func Healthy(name string) Health {
	return Health{Name: name, Status: StatusHealthy}
}

// Unhealthy is shorthand for an unhealthy report.
func Unhealthy(name, message string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: message}
}

// Component is a lifecycle-managed infrastructure dependency.
type Component interface {
	// Name returns the unique registration name.
	Name() string
	// Start connects or initializes the component.
	Start(ctx context.Context) error
	// Stop releases resources.
	Stop(ctx context.Context) error
	// Health reports the current status.
	Health(ctx context.Context) Health
}

// Description holds summary information for the startup log.
type Description struct {
	// Name is the display name; the component's Name() is used when empty.
	Name string
	// Type categorizes the component: "redis", "kafka", "storage", ...
	Type string
	// Details is a one-line configuration summary.
	Details string
	// Port is the primary port, 0 if not applicable.
	Port int
}

// Describable is optionally implemented by components that report what they
// are in the startup summary.
type Describable interface {
	Describe() Description
}

// Aggregate folds component reports into an overall status: unhealthy if any
// component is unhealthy, degraded if any is degraded.
func Aggregate(reports []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range reports {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
