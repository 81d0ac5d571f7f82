package health

import "context"

// ContentChecker checks content store availability.
type ContentChecker interface {
	HealthCheck(ctx context.Context) error
}

// ChatChecker checks completion provider availability.
type ChatChecker interface {
	HealthCheck(ctx context.Context) error
}

// DBPinger checks key-value store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}
