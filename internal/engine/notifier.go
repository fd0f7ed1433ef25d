package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// Notifier delivers alarm notifications on the scoped bus, so deliveries for
// one customer are strictly ordered while different customers proceed in
// parallel. Delivery itself is a structured log line tagged with the
// customer's notification channel; real channels plug in behind the same
// handler.
type Notifier struct {
	logger *slog.Logger
	scoped *bus.ScopedBus
	dir    ports.Directory
	sub    *bus.Subscription

	delivered atomic.Uint64
}

func NewNotifier(logger *slog.Logger, scoped *bus.ScopedBus, dir ports.Directory) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Notifier{logger: logger.With("component", "notifier_engine"), scoped: scoped, dir: dir}
	e.sub = scoped.Subscribe(events.KindAlarmRaised, bus.HandlerFunc(e.onAlarm))
	return e
}

func (e *Notifier) onAlarm(ctx context.Context, ev events.Event) error {
	alarm, ok := ev.(events.AlarmRaised)
	if !ok {
		return nil
	}
	customer, err := e.dir.CustomerByID(ctx, alarm.CustomerID)
	if errors.Is(err, ports.ErrNotFound) {
		e.logger.Warn("alarm for unknown customer, dropping notification", "customer_id", alarm.CustomerID)
		return nil
	}
	if err != nil {
		return err
	}
	e.logger.Info("notification delivered",
		"channel", customer.Notification.String(),
		"customer_id", alarm.CustomerID,
		"message", alarm.Message)
	e.delivered.Add(1)
	return nil
}

// Delivered returns how many notifications have been sent.
func (e *Notifier) Delivered() uint64 { return e.delivered.Load() }

func (e *Notifier) Close() { e.scoped.Unsubscribe(e.sub) }
