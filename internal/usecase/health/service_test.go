package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockAuditChecker struct {
	err error
}

func (m *mockAuditChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name     string
		storeErr error
		audit    AuditChecker
		status   Status
		checks   map[string]CheckResult
	}{
		{
			name:   "all healthy",
			audit:  &mockAuditChecker{},
			status: Healthy,
			checks: map[string]CheckResult{"database": CheckOK, "audit": CheckOK},
		},
		{
			name:     "database down",
			storeErr: down,
			audit:    &mockAuditChecker{},
			status:   Unhealthy,
			checks:   map[string]CheckResult{"database": CheckError, "audit": CheckOK},
		},
		{
			name:   "audit down",
			audit:  &mockAuditChecker{err: down},
			status: Degraded,
			checks: map[string]CheckResult{"database": CheckOK, "audit": CheckError},
		},
		{
			name:     "both down",
			storeErr: down,
			audit:    &mockAuditChecker{err: down},
			status:   Unhealthy,
			checks:   map[string]CheckResult{"database": CheckError, "audit": CheckError},
		},
		{
			name:   "audit disabled",
			status: Healthy,
			checks: map[string]CheckResult{"database": CheckOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockStorePinger{err: tt.storeErr}, tt.audit)
			r := svc.Check(context.Background())

			if r.Status != tt.status {
				t.Errorf("expected %q, got %q", tt.status, r.Status)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("expected %d checks, got %v", len(tt.checks), r.Checks)
			}
			for name, want := range tt.checks {
				if r.Checks[name] != want {
					t.Errorf("expected %s %q, got %q", name, want, r.Checks[name])
				}
			}
		})
	}
}

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheck_BoundedByTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	r := New(blockingPinger{}, &mockAuditChecker{}).Check(ctx)
	if time.Since(start) > time.Second {
		t.Fatal("check must honour the caller's deadline")
	}
	if r.Status != Unhealthy || r.Checks["audit"] != CheckOK {
		t.Errorf("report = %+v", r)
	}
}
