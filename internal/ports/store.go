package ports

import (
	"context"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

// TelemetryStore persists telemetry points. Append deduplicates by the last
// correlation id seen and by (topic, same-second timestamp, identical
// payload); duplicates report LogReceived rather than an error.
type TelemetryStore interface {
	Append(ctx context.Context, topic string, ts time.Time, value, correlationID string) (domain.LogStatus, error)
	Query(ctx context.Context, topic string, start, end time.Time) ([]domain.LogPoint, error)
}
