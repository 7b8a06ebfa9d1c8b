package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	CorpusSize int
}

// Service coordinates health checks.
type Service struct {
	engine EngineStats
	cache  CachePinger
}

// New creates a Service. cache can be nil when no external cache is
// configured.
func New(engine EngineStats, cache CachePinger) *Service {
	return &Service{engine: engine, cache: cache}
}

// Check runs health checks against all components. The engine lives in
// the same process, so its check only confirms wiring; a failing cache
// degrades the report but the service keeps serving from memory.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	corpus := 0
	if s.engine != nil {
		corpus = s.engine.CorpusSize()
		checks["engine"] = CheckOK
	} else {
		checks["engine"] = CheckError
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, CorpusSize: corpus}
}
