package scopeq

import (
	"context"

	healthuc "github.com/kailas-cloud/scopeq/internal/usecase/health"
)

// HealthStatus is the aggregated state of the database and, when the
// audit publisher can report it, the audit sink.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // "database", "audit" → "ok"/"error"
}

// Serving reports whether searches can run. A degraded audit sink does not stop them.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health checks the database and the audit publisher.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// auditChecker returns p when it can report its own health.
func auditChecker(p AuditPublisher) healthuc.AuditChecker {
	if c, ok := p.(healthuc.AuditChecker); ok {
		return c
	}
	return nil
}
