package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// DeviceCache is the write side of the device→customer cache.
type DeviceCache interface {
	Set(deviceID string, customer *domain.Customer)
}

// CacheWarmup populates the device cache both on the Ready signal (bulk) and
// per loaded customer. The cache service warms the same store on
// CustomerLoaded; writes are overwrites, so the overlap is idempotent.
type CacheWarmup struct {
	logger *slog.Logger
	bus    *bus.Bus
	dir    ports.Directory
	cache  DeviceCache
	subs   []*bus.Subscription
}

func NewCacheWarmup(logger *slog.Logger, b *bus.Bus, dir ports.Directory, cache DeviceCache) *CacheWarmup {
	if logger == nil {
		logger = slog.Default()
	}
	e := &CacheWarmup{logger: logger.With("component", "cache_warmup_engine"), bus: b, dir: dir, cache: cache}
	e.subs = append(e.subs,
		b.Subscribe(events.KindSystemReady, bus.HandlerFunc(e.onSystemReady)),
		b.Subscribe(events.KindCustomerLoaded, bus.HandlerFunc(e.onCustomerLoaded)),
	)
	return e
}

func (e *CacheWarmup) onSystemReady(ctx context.Context, ev events.Event) error {
	e.logger.Info("system ready, starting cache warmup")

	customers, err := e.dir.ActiveCustomers(ctx)
	if err != nil {
		return err
	}
	for _, customer := range customers {
		e.warm(customer)
	}
	e.logger.Info("cache warmup completed", "customers", len(customers))
	return nil
}

func (e *CacheWarmup) onCustomerLoaded(ctx context.Context, ev events.Event) error {
	loaded, ok := ev.(events.CustomerLoaded)
	if !ok {
		return nil
	}
	customer, err := e.dir.CustomerByID(ctx, loaded.CustomerID())
	if errors.Is(err, ports.ErrNotFound) {
		e.logger.Warn("loaded customer missing from directory", "customer_id", loaded.CustomerID())
		return nil
	}
	if err != nil {
		return err
	}
	e.warm(customer)
	return nil
}

func (e *CacheWarmup) warm(customer *domain.Customer) {
	for _, deviceID := range customer.RegisteredDevices {
		e.cache.Set(deviceID, customer)
		e.logger.Debug("cached device", "device_id", deviceID, "customer_id", customer.ID)
	}
}

func (e *CacheWarmup) Close() {
	for _, sub := range e.subs {
		e.bus.Unsubscribe(sub)
	}
}
