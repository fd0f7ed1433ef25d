package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// Alarm watches enriched values for anomalies against a per-topic moving
// average. Customers without an alarm subscription are skipped before any
// numeric work happens.
type Alarm struct {
	logger  *slog.Logger
	bus     *bus.Bus
	obs     ports.Observability
	history *history
	sub     *bus.Subscription
}

func NewAlarm(logger *slog.Logger, b *bus.Bus, obs ports.Observability) *Alarm {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	e := &Alarm{
		logger:  logger.With("component", "alarm_engine"),
		bus:     b,
		obs:     obs,
		history: newHistory(),
	}
	e.sub = b.Subscribe(events.KindResponseEnrichment, bus.HandlerFunc(e.onEnriched))
	return e
}

func (e *Alarm) onEnriched(ctx context.Context, ev events.Event) error {
	resp, ok := ev.(events.ResponseCustomerValueEnrichment)
	if !ok {
		return nil
	}
	if resp.AlarmPolicy == domain.AlarmNone {
		return nil
	}

	value, err := strconv.ParseFloat(resp.Value, 64)
	if err != nil {
		e.logger.Debug("non-numeric value, skipping alarm check", "topic", resp.Topic, "value", resp.Value)
		return nil
	}

	anomalous, avg := e.history.observe(resp.Topic, value)
	if !anomalous {
		return nil
	}

	message := fmt.Sprintf("Grefur-Alarm: Anomaly detected on %s. Value: %v, Avg: %.2f", resp.Topic, value, avg)
	e.bus.Publish(ctx, events.NewAlarmRaised(
		resp.CustomerID(), resp.DeviceID, resp.Topic, value, message,
		"AlarmEngine", resp.EventMeta().CorrelationID))
	e.obs.IncCounter(metricAlarmsRaised, 1)
	e.logger.Warn("alarm raised",
		"topic", resp.Topic,
		"value", value,
		"avg", avg,
		"customer_id", resp.CustomerID())
	return nil
}

func (e *Alarm) Close() { e.bus.Unsubscribe(e.sub) }
