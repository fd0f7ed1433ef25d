package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const source = "CustomerService"

// Service answers directory queries arriving over the bus: enrichment
// requests get the customer's policy levels attached, device queries get the
// owning customer id. A lookup miss drops the in-flight chain with a warning;
// there is no retry and no dead-letter.
type Service struct {
	logger *slog.Logger
	bus    *bus.Bus
	dir    ports.Directory
	subs   []*bus.Subscription
}

func NewService(logger *slog.Logger, b *bus.Bus, dir ports.Directory) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		logger: logger.With("component", "customer_service"),
		bus:    b,
		dir:    dir,
	}
	s.subs = append(s.subs,
		b.Subscribe(events.KindRequestEnrichment, bus.HandlerFunc(s.onEnrichmentRequest)),
		b.Subscribe(events.KindCustomerQuery, bus.HandlerFunc(s.onCustomerQuery)),
	)
	return s
}

func (s *Service) onEnrichmentRequest(ctx context.Context, ev events.Event) error {
	req, ok := ev.(events.RequestCustomerValueEnrichment)
	if !ok {
		return nil
	}
	s.logger.Debug("enrichment requested",
		"device_id", req.DeviceID,
		"topic", req.Topic,
		"correlation_id", req.EventMeta().CorrelationID)

	customer, err := s.dir.CustomerByDevice(ctx, req.DeviceID)
	if errors.Is(err, ports.ErrNotFound) {
		s.logger.Warn("no customer for device, dropping enrichment", "device_id", req.DeviceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enrichment lookup for device %s: %w", req.DeviceID, err)
	}

	resp := events.NewResponseCustomerValueEnrichment(
		customer,
		"SUB-"+customer.ID,
		customer.AlarmSubscription,
		customer.LogSubscription,
		req.DeviceID,
		req.Topic,
		req.Value,
		req.ValueType,
		source,
		req.EventMeta().CorrelationID,
	)
	s.bus.Publish(ctx, resp)

	s.logger.Debug("published enrichment response",
		"customer_id", customer.ID,
		"alarm_policy", customer.AlarmSubscription,
		"log_policy", customer.LogSubscription)
	return nil
}

func (s *Service) onCustomerQuery(ctx context.Context, ev events.Event) error {
	q, ok := ev.(events.CustomerQuery)
	if !ok {
		return nil
	}
	customer, err := s.dir.CustomerByDevice(ctx, q.DeviceID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("customer query for device %s: %w", q.DeviceID, err)
	}
	s.bus.Publish(ctx, events.NewCustomerQueryResponse(q.DeviceID, customer.ID, source, q.EventMeta().CorrelationID))
	return nil
}

// ActiveSubscribers loads the active customers and announces each one on the
// bus. Every load iteration starts a fresh causal chain, so each
// CustomerLoaded carries its own correlation id.
func (s *Service) ActiveSubscribers(ctx context.Context) ([]*domain.Customer, error) {
	active, err := s.dir.ActiveCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active customers: %w", err)
	}
	s.logger.Info("loaded active customers", "count", len(active))

	for _, customer := range active {
		s.bus.Publish(ctx, events.NewCustomerLoaded(customer, source, events.NewCorrelationID()))
	}
	return active, nil
}

// Close detaches the responder from the bus.
func (s *Service) Close() {
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
}
