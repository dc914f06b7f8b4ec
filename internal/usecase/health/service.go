package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the aggregated health of the service.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded" // searches work, audit delivery fails
	Unhealthy Status = "error"    // storage unreachable
)

// CheckResult is the outcome of one component probe.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

const checkTimeout = 3 * time.Second

// Report aggregates health check results keyed by component.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name     string
	critical bool
	run      func(context.Context) error
}

// Service probes the storage backend and, when configured, the audit sink.
type Service struct {
	probes []probe
}

// New creates a Service. audit can be nil.
func New(store StorePinger, audit AuditChecker) *Service {
	probes := []probe{{name: "database", critical: true, run: store.Ping}}
	if audit != nil {
		probes = append(probes, probe{name: "audit", run: audit.HealthCheck})
	}
	return &Service{probes: probes}
}

// Check runs all probes concurrently, each bounded by checkTimeout.
// A failing critical probe makes the service Unhealthy, any other
// failure Degraded.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		g      errgroup.Group
		report = Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes))}
	)
	for _, p := range s.probes {
		g.Go(func() error {
			err := p.run(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Checks[p.name] = CheckOK
				return nil
			}
			report.Checks[p.name] = CheckError
			switch {
			case p.critical:
				report.Status = Unhealthy
			case report.Status == Healthy:
				report.Status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()
	return report
}
