package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the engine is unreachable; no conversion can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as check keys.
const (
	ComponentEngine           = "engine"
	ComponentCoordinator      = "coordinator"
	ComponentDescriptionModel = "description_model"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine      EngineChecker
	coordinator DBPinger
	model       ModelChecker
}

// New creates a Service.
func New(engine EngineChecker) *Service {
	return &Service{engine: engine}
}

// WithCoordinator adds the shared slot store to the checks.
func (s *Service) WithCoordinator(db DBPinger) *Service {
	s.coordinator = db
	return s
}

// WithDescriptionModel adds the description endpoint to the checks.
func (s *Service) WithDescriptionModel(m ModelChecker) *Service {
	s.model = m
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentEngine] = result(s.engine.HealthCheck(ctx))
	if s.coordinator != nil {
		checks[ComponentCoordinator] = result(s.coordinator.Ping(ctx))
	}
	if s.model != nil {
		checks[ComponentDescriptionModel] = result(s.model.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentEngine] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
