package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// GlobalScope is the serialization key for events that carry no scope key.
const GlobalScope = "global"

// ScopedBus serializes dispatch per scope: at most one publish for a given
// scope key runs at a time, while different scopes dispatch concurrently.
// The scope key comes from the typed events.ScopeKeyer accessor; events
// without one (or with an empty key) all serialize under GlobalScope.
//
// Its handler registry is its own; subscriptions on a ScopedBus are not
// visible to any Bus and vice versa.
type ScopedBus struct {
	reg    *registry
	scopes sync.Map // scope key -> *sync.Mutex
	logger *slog.Logger
	obs    ports.Observability
}

func NewScoped(logger *slog.Logger, obs ports.Observability) *ScopedBus {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &ScopedBus{reg: newRegistry(), logger: logger.With("component", "scoped_eventbus"), obs: obs}
}

func (s *ScopedBus) Subscribe(kind events.Kind, h Handler) *Subscription {
	return s.reg.add(kind, h)
}

func (s *ScopedBus) Unsubscribe(sub *Subscription) {
	s.reg.remove(sub)
}

// Publish acquires the event's scope lock, dispatches, and releases the lock
// on every exit path, handler panics included.
func (s *ScopedBus) Publish(ctx context.Context, ev events.Event) {
	if ev == nil {
		return
	}
	mu := s.scopeLock(scopeOf(ev))
	mu.Lock()
	defer mu.Unlock()

	s.obs.IncCounter(metricEventsPublished, 1)
	for _, h := range s.reg.matching(ev.Kind()) {
		invoke(ctx, s.logger, s.obs, h, ev)
	}
}

func (s *ScopedBus) scopeLock(key string) *sync.Mutex {
	mu, _ := s.scopes.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func scopeOf(ev events.Event) string {
	if sk, ok := ev.(events.ScopeKeyer); ok {
		if key := sk.ScopeKey(); key != "" {
			return key
		}
	}
	return GlobalScope
}
