package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

const (
	metricAlarmsRaised = "grefur_alarms_raised_total"
	metricPointsLogged = "grefur_telemetry_points_logged_total"
	metricPointsFailed = "grefur_telemetry_points_failed_total"
)

// Logger converts enriched values into log-point requests for customers
// whose log subscription permits persistence.
type Logger struct {
	logger *slog.Logger
	bus    *bus.Bus
	sub    *bus.Subscription
}

func NewLogger(logger *slog.Logger, b *bus.Bus) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Logger{logger: logger.With("component", "logger_engine"), bus: b}
	e.sub = b.Subscribe(events.KindResponseEnrichment, bus.HandlerFunc(e.onEnriched))
	return e
}

func (e *Logger) onEnriched(ctx context.Context, ev events.Event) error {
	resp, ok := ev.(events.ResponseCustomerValueEnrichment)
	if !ok {
		return nil
	}
	if resp.LogPolicy <= domain.SubscriptionNone {
		e.logger.Debug("customer not subscribed to logging", "customer_id", resp.CustomerID())
		return nil
	}
	e.bus.Publish(ctx, events.NewLogPoint(
		resp.CustomerID(), resp.DeviceID, resp.Topic, resp.ValueType, resp.Value,
		domain.LogRequested, "LoggerEngine", resp.EventMeta().CorrelationID))
	return nil
}

func (e *Logger) Close() { e.bus.Unsubscribe(e.sub) }
