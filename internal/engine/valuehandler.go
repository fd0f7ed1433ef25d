package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// ValueHandler observes raw broker traffic for diagnostics and offers a
// synchronous device-to-customer lookup over the bus.
type ValueHandler struct {
	logger  *slog.Logger
	bus     *bus.Bus
	sub     *bus.Subscription
	timeout time.Duration
}

// NewValueHandler builds the handler with the configured request timeout;
// non-positive values fall back to the bus default.
func NewValueHandler(logger *slog.Logger, b *bus.Bus, requestTimeout time.Duration) *ValueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = bus.DefaultRequestTimeout
	}
	e := &ValueHandler{
		logger:  logger.With("component", "value_handler_engine"),
		bus:     b,
		timeout: requestTimeout,
	}
	e.sub = b.Subscribe(events.KindMqttMessageReceived, bus.HandlerFunc(e.onMessage))
	return e
}

func (e *ValueHandler) onMessage(ctx context.Context, ev events.Event) error {
	msg, ok := ev.(events.MqttMessageReceived)
	if !ok {
		return nil
	}
	e.logger.Debug("message observed", "topic", msg.Topic, "device_id", msg.DeviceID)
	return nil
}

// QueryCustomerID resolves the customer owning a device via a bus round
// trip, bounded by the configured request timeout.
func (e *ValueHandler) QueryCustomerID(ctx context.Context, deviceID string) (string, error) {
	query := events.NewCustomerQuery(deviceID, "ValueHandlerEngine", events.NewCorrelationID())
	resp, err := e.bus.Request(ctx, query, events.KindCustomerQueryResponse, func(ev events.Event) bool {
		r, ok := ev.(events.CustomerQueryResponse)
		return ok && r.DeviceID == deviceID
	}, e.timeout)
	if err != nil {
		return "", fmt.Errorf("customer query for %s: %w", deviceID, err)
	}
	return resp.(events.CustomerQueryResponse).CustomerID, nil
}

func (e *ValueHandler) Close() { e.bus.Unsubscribe(e.sub) }
