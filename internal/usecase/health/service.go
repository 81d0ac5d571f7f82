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
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	content ContentChecker
	chat    ChatChecker
	db      DBPinger
}

// New creates a Service. chat and db can be nil.
func New(content ContentChecker, chat ChatChecker, db DBPinger) *Service {
	return &Service{content: content, chat: chat, db: db}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.content.HealthCheck(ctx); err != nil {
		checks["content_store"] = CheckError
	} else {
		checks["content_store"] = CheckOK
	}

	if s.chat != nil {
		if err := s.chat.HealthCheck(ctx); err != nil {
			checks["chat"] = CheckError
		} else {
			checks["chat"] = CheckOK
		}
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
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

	return Report{Status: status, Checks: checks}
}
