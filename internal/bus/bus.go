// Package bus is the in-process event dispatcher everything else composes
// through. Handlers subscribe by kind; publishing walks the event's kind
// lineage so a handler registered for a parent kind receives every concrete
// child. Handler failures are isolated per handler: they are logged and
// counted, never propagated to the publisher or to sibling handlers.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const (
	metricEventsPublished = "grefur_events_published_total"
	metricHandlerFailures = "grefur_bus_handler_failures_total"
	metricRequestTimeouts = "grefur_bus_request_timeouts_total"
)

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, ev events.Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev events.Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev events.Event) error { return f(ctx, ev) }

// Subscription identifies one registration so it can be removed again. The
// same handler may be subscribed any number of times and will then be invoked
// once per registration.
type Subscription struct {
	kind events.Kind
	id   uint64
}

// registry is the handler multiset shared by Bus and ScopedBus. Iteration
// order over a kind's handlers is map order, deliberately unspecified.
type registry struct {
	mu     sync.RWMutex
	nextID uint64
	byKind map[events.Kind]map[uint64]Handler
}

func newRegistry() *registry {
	return &registry{byKind: make(map[events.Kind]map[uint64]Handler)}
}

func (r *registry) add(kind events.Kind, h Handler) *Subscription {
	if h == nil {
		panic("bus: nil handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	set := r.byKind[kind]
	if set == nil {
		set = make(map[uint64]Handler)
		r.byKind[kind] = set
	}
	set[r.nextID] = h
	return &Subscription{kind: kind, id: r.nextID}
}

func (r *registry) remove(sub *Subscription) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.byKind[sub.kind]; ok {
		delete(set, sub.id)
	}
}

// matching snapshots every handler registered for the kind or any of its
// ancestors so dispatch runs without holding the lock.
func (r *registry) matching(kind events.Kind) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Handler
	for _, k := range kind.Lineage() {
		for _, h := range r.byKind[k] {
			out = append(out, h)
		}
	}
	return out
}

func (r *registry) count(kind events.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKind[kind])
}

// Bus is the central dispatcher. Construct one per process and hand it to
// every component; there is no package-level instance.
type Bus struct {
	reg    *registry
	logger *slog.Logger
	obs    ports.Observability
}

func New(logger *slog.Logger, obs ports.Observability) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &Bus{reg: newRegistry(), logger: logger.With("component", "eventbus"), obs: obs}
}

// Subscribe registers a handler for the given kind. Nil handlers fail fast.
func (b *Bus) Subscribe(kind events.Kind, h Handler) *Subscription {
	return b.reg.add(kind, h)
}

// Unsubscribe removes one registration; unknown tokens are a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.reg.remove(sub)
}

// Publish delivers the event to every matching handler, awaiting each one
// before moving to the next. It never fails because a handler failed.
func (b *Bus) Publish(ctx context.Context, ev events.Event) {
	if ev == nil {
		return
	}
	b.obs.IncCounter(metricEventsPublished, 1)
	for _, h := range b.reg.matching(ev.Kind()) {
		invoke(ctx, b.logger, b.obs, h, ev)
	}
}

// invoke runs one handler, converting errors and panics into a log line and a
// failure metric so one bad handler cannot take out its siblings.
func invoke(ctx context.Context, logger *slog.Logger, obs ports.Observability, h Handler, ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			obs.IncCounter(metricHandlerFailures, 1)
			logger.Error("event handler panicked",
				"kind", ev.Kind(),
				"correlation_id", ev.EventMeta().CorrelationID,
				"panic", r)
		}
	}()
	if err := h.Handle(ctx, ev); err != nil {
		obs.IncCounter(metricHandlerFailures, 1)
		logger.Error("event handler failed",
			"kind", ev.Kind(),
			"correlation_id", ev.EventMeta().CorrelationID,
			"err", err)
	}
}
