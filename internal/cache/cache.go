// Package cache holds the TTL-bounded device→customer map the pipeline uses
// as its fast lookup path.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const (
	// DefaultTTL is how long an entry stays valid after its last write.
	DefaultTTL = 10 * time.Minute
	// DefaultSweepInterval is how often expired entries are physically evicted.
	DefaultSweepInterval = 5 * time.Minute

	source = "CacheService"

	metricCacheHits      = "grefur_cache_hits_total"
	metricCacheMisses    = "grefur_cache_misses_total"
	metricCacheEvictions = "grefur_cache_evictions_total"
	metricCacheEntries   = "grefur_cache_entries"
)

// Statistics is a point-in-time summary of the cache contents.
type Statistics struct {
	Total  int
	Valid  int
	Oldest time.Time
	Newest time.Time
}

// Service maps device ids to customer snapshots with per-entry TTLs. Reads
// and writes go through two concurrent maps keyed by device id, so neither
// the sweep nor concurrent callers ever block each other on a global lock.
//
// It is both a direct-call lookup API and a bus handler: a CustomerLoaded
// event warms the cache for that customer's devices and publishes CacheReady
// with the same correlation id.
type Service struct {
	logger *slog.Logger
	bus    *bus.Bus
	dir    ports.Directory
	obs    ports.Observability

	customers sync.Map // deviceID -> *domain.Customer
	stamps    sync.Map // deviceID -> time.Time

	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	sub  *bus.Subscription
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Option tweaks a Service at construction.
type Option func(*Service)

func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweep = d
		}
	}
}

// WithClock injects the time source; tests use it to age entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(logger *slog.Logger, b *bus.Bus, dir ports.Directory, obs ports.Observability, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	s := &Service{
		logger: logger.With("component", "cache"),
		bus:    b,
		dir:    dir,
		obs:    obs,
		ttl:    DefaultTTL,
		sweep:  DefaultSweepInterval,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sub = b.Subscribe(events.KindCustomerLoaded, bus.HandlerFunc(s.onCustomerLoaded))
	go s.sweepLoop()
	return s
}

// onCustomerLoaded warms the cache for every device the loaded customer owns,
// then signals CacheReady on the same correlation chain. A directory miss is
// logged and the ready signal still goes out, matching the load flow's
// at-least-signal-once behavior.
func (s *Service) onCustomerLoaded(ctx context.Context, ev events.Event) error {
	loaded, ok := ev.(events.CustomerLoaded)
	if !ok {
		return nil
	}
	customerID := loaded.CustomerID()
	s.logger.Info("warming cache", "customer_id", customerID)

	customer, err := s.dir.CustomerByID(ctx, customerID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		s.logger.Warn("customer not found during cache warmup", "customer_id", customerID)
	case err != nil:
		s.logger.Error("directory lookup failed during cache warmup", "customer_id", customerID, "err", err)
	default:
		for _, deviceID := range customer.RegisteredDevices {
			s.Set(deviceID, customer)
		}
	}

	s.bus.Publish(ctx, events.NewCacheReady(customerID, source, loaded.EventMeta().CorrelationID))
	return nil
}

// Get returns the cached customer for a device, treating expired entries as
// absent even when they are still physically present.
func (s *Service) Get(deviceID string) (*domain.Customer, bool) {
	v, ok := s.customers.Load(deviceID)
	if !ok || s.expired(deviceID) {
		s.obs.IncCounter(metricCacheMisses, 1)
		s.logger.Debug("cache miss", "device_id", deviceID)
		return nil, false
	}
	s.obs.IncCounter(metricCacheHits, 1)
	s.logger.Debug("cache hit", "device_id", deviceID)
	return v.(*domain.Customer), true
}

// Set inserts or overwrites an entry and refreshes its timestamp.
func (s *Service) Set(deviceID string, customer *domain.Customer) {
	s.customers.Store(deviceID, customer)
	s.stamps.Store(deviceID, s.now())
	s.obs.SetGauge(metricCacheEntries, float64(s.size()))
	s.logger.Debug("cached device", "device_id", deviceID, "customer_id", customer.ID)
}

func (s *Service) Remove(deviceID string) {
	s.customers.Delete(deviceID)
	s.stamps.Delete(deviceID)
	s.obs.SetGauge(metricCacheEntries, float64(s.size()))
}

// Contains reports whether the device has a valid (unexpired) entry.
func (s *Service) Contains(deviceID string) bool {
	_, ok := s.customers.Load(deviceID)
	return ok && !s.expired(deviceID)
}

func (s *Service) Clear() {
	s.customers.Range(func(k, _ any) bool {
		s.customers.Delete(k)
		s.stamps.Delete(k)
		return true
	})
	s.obs.SetGauge(metricCacheEntries, 0)
	s.logger.Info("cache cleared")
}

// CachedDeviceIDs lists every physically stored device id, expired or not.
func (s *Service) CachedDeviceIDs() []string {
	var ids []string
	s.customers.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	return ids
}

// DistinctCustomers lists each cached customer once.
func (s *Service) DistinctCustomers() []*domain.Customer {
	seen := make(map[string]bool)
	var out []*domain.Customer
	s.customers.Range(func(_, v any) bool {
		c := v.(*domain.Customer)
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
		return true
	})
	return out
}

func (s *Service) Stats() Statistics {
	var st Statistics
	s.customers.Range(func(k, _ any) bool {
		st.Total++
		if !s.expired(k.(string)) {
			st.Valid++
		}
		return true
	})
	s.stamps.Range(func(_, v any) bool {
		ts := v.(time.Time)
		if st.Oldest.IsZero() || ts.Before(st.Oldest) {
			st.Oldest = ts
		}
		if ts.After(st.Newest) {
			st.Newest = ts
		}
		return true
	})
	return st
}

// Close stops the sweeper and detaches from the bus.
func (s *Service) Close() {
	s.once.Do(func() {
		s.bus.Unsubscribe(s.sub)
		close(s.stop)
		<-s.done
	})
}

func (s *Service) expired(deviceID string) bool {
	v, ok := s.stamps.Load(deviceID)
	if !ok {
		return true
	}
	return s.now().Sub(v.(time.Time)) > s.ttl
}

func (s *Service) size() int {
	n := 0
	s.customers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *Service) sweepLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

// sweepExpired physically removes entries past their TTL. Readers already
// treat them as absent; this only reclaims memory.
func (s *Service) sweepExpired() {
	evicted := 0
	s.customers.Range(func(k, _ any) bool {
		deviceID := k.(string)
		if s.expired(deviceID) {
			s.customers.Delete(deviceID)
			s.stamps.Delete(deviceID)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		s.obs.IncCounter(metricCacheEvictions, float64(evicted))
		s.obs.SetGauge(metricCacheEntries, float64(s.size()))
		s.logger.Debug("evicted expired cache entries", "count", evicted)
	}
}
