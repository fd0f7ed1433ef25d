// Package engine holds the pipeline engines: narrow handlers that subscribe
// to bus events and publish derived events. Engines never reference each
// other; the bus is their only coupling.
package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// Bootstrap emits the lifecycle markers that kick off every other engine's
// workflow. It is invoked directly at startup and again after every
// reconnect, so downstream consumers must tolerate repeated Ready signals.
type Bootstrap struct {
	logger *slog.Logger
	bus    *bus.Bus
}

func NewBootstrap(logger *slog.Logger, b *bus.Bus) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{logger: logger.With("component", "bootstrap_engine"), bus: b}
}

// Start publishes SystemStarting and SystemReady under one correlation id.
func (e *Bootstrap) Start(ctx context.Context) {
	correlationID := events.NewCorrelationID()

	e.bus.Publish(ctx, events.NewSystemStarting("BootstrapEngine", correlationID))
	e.logger.Info("system starting published", "correlation_id", correlationID)

	e.bus.Publish(ctx, events.NewSystemReady("BootstrapEngine", correlationID))
	e.logger.Info("system ready published", "correlation_id", correlationID)
}
