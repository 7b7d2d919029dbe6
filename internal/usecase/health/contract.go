package health

import "context"

// EngineChecker checks conversion engine availability.
type EngineChecker interface {
	HealthCheck(ctx context.Context) error
}

// DBPinger checks coordination store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks the picture description endpoint.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
