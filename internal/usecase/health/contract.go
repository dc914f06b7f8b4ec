package health

import "context"

// StorePinger checks storage backend availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// AuditChecker reports whether audit events are being delivered.
type AuditChecker interface {
	HealthCheck(ctx context.Context) error
}
