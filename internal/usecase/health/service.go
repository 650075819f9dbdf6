package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the cache is down; searches still work, uncached.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog is down and searches fail.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates a component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog Pinger
	cache   Pinger
}

// New creates a Service. cache can be nil when caching is disabled.
func New(catalog, cache Pinger) *Service {
	return &Service{catalog: catalog, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	if s.cache == nil {
		checks["cache"] = CheckDisabled
	} else if err := s.cache.Ping(ctx); err != nil {
		checks["cache"] = CheckError
		status = Degraded
	} else {
		checks["cache"] = CheckOK
	}

	if err := s.catalog.Ping(ctx); err != nil {
		checks["catalog"] = CheckError
		status = Unhealthy
	} else {
		checks["catalog"] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
