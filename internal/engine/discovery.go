package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// DeviceDiscovery fans each loaded customer out into one DeviceRegistered
// event per registered device, keeping the load correlation intact.
type DeviceDiscovery struct {
	logger *slog.Logger
	bus    *bus.Bus
	sub    *bus.Subscription
}

func NewDeviceDiscovery(logger *slog.Logger, b *bus.Bus) *DeviceDiscovery {
	if logger == nil {
		logger = slog.Default()
	}
	e := &DeviceDiscovery{logger: logger.With("component", "device_discovery_engine"), bus: b}
	e.sub = b.Subscribe(events.KindCustomerLoaded, bus.HandlerFunc(e.onCustomerLoaded))
	return e
}

func (e *DeviceDiscovery) onCustomerLoaded(ctx context.Context, ev events.Event) error {
	loaded, ok := ev.(events.CustomerLoaded)
	if !ok || loaded.Customer == nil {
		return nil
	}
	for _, deviceID := range loaded.Customer.RegisteredDevices {
		e.bus.Publish(ctx, events.NewDeviceRegistered(
			loaded.CustomerID(), deviceID, "DeviceDiscoveryEngine", loaded.EventMeta().CorrelationID))
		e.logger.Info("device registered", "device_id", deviceID, "customer_id", loaded.CustomerID())
	}
	return nil
}

func (e *DeviceDiscovery) Close() { e.bus.Unsubscribe(e.sub) }
