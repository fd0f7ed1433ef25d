package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// Subscription turns every classified value into an enrichment request so
// the directory can attach customer identity and policy levels.
type Subscription struct {
	logger *slog.Logger
	bus    *bus.Bus
	sub    *bus.Subscription
}

func NewSubscription(logger *slog.Logger, b *bus.Bus) *Subscription {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Subscription{logger: logger.With("component", "subscription_engine"), bus: b}
	e.sub = b.Subscribe(events.KindValueReceived, bus.HandlerFunc(e.onValueReceived))
	return e
}

func (e *Subscription) onValueReceived(ctx context.Context, ev events.Event) error {
	v, ok := ev.(events.ValueReceived)
	if !ok {
		return nil
	}
	e.bus.Publish(ctx, events.NewRequestCustomerValueEnrichment(
		v.DeviceID, v.Topic, v.Value, v.ValueType,
		"SubscriptionEngine", v.EventMeta().CorrelationID))
	e.logger.Debug("enrichment requested", "device_id", v.DeviceID, "topic", v.Topic)
	return nil
}

func (e *Subscription) Close() { e.bus.Unsubscribe(e.sub) }
