package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// ActiveLoader is the directory-facing collaborator the load engine pulls
// from. Loading also announces each record on the bus under a fresh id.
type ActiveLoader interface {
	ActiveSubscribers(ctx context.Context) ([]*domain.Customer, error)
}

// CustomerLoad reacts to SystemReady by pulling every active customer and
// republishing each one on the triggering correlation chain.
type CustomerLoad struct {
	logger *slog.Logger
	bus    *bus.Bus
	loader ActiveLoader
	sub    *bus.Subscription
}

func NewCustomerLoad(logger *slog.Logger, b *bus.Bus, loader ActiveLoader) *CustomerLoad {
	if logger == nil {
		logger = slog.Default()
	}
	e := &CustomerLoad{logger: logger.With("component", "customer_load_engine"), bus: b, loader: loader}
	e.sub = b.Subscribe(events.KindSystemReady, bus.HandlerFunc(e.onSystemReady))
	return e
}

func (e *CustomerLoad) onSystemReady(ctx context.Context, ev events.Event) error {
	e.logger.Info("system ready, loading customers")

	customers, err := e.loader.ActiveSubscribers(ctx)
	if err != nil {
		return err
	}
	for _, customer := range customers {
		e.bus.Publish(ctx, events.NewCustomerLoaded(customer, "CustomerLoadEngine", ev.EventMeta().CorrelationID))
		e.logger.Info("customer loaded", "customer_id", customer.ID)
	}
	return nil
}

func (e *CustomerLoad) Close() { e.bus.Unsubscribe(e.sub) }
