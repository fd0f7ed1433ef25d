package directory

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

func TestMemoryActiveCustomers(t *testing.T) {
	m := NewMemory()

	active, err := m.ActiveCustomers(context.Background())
	if err != nil {
		t.Fatalf("active customers: %v", err)
	}
	if len(active) != 1 || active[0].ID != "CUST-001" {
		t.Fatalf("only CUST-001 has non-default flags, got %v", active)
	}
}

func TestEnrichmentResponseCarriesPolicyLevels(t *testing.T) {
	b := bus.New(nil, nil)
	svc := NewService(nil, b, NewMemory())
	defer svc.Close()

	var got atomic.Value
	b.Subscribe(events.KindResponseEnrichment, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		got.Store(ev.(events.ResponseCustomerValueEnrichment))
		return nil
	}))

	b.Publish(context.Background(), events.NewRequestCustomerValueEnrichment(
		"Grefur_3461", "Grefur_3461/900/RT401/value", "21.5", "value", "test", "corr-7"))

	resp, ok := got.Load().(events.ResponseCustomerValueEnrichment)
	if !ok {
		t.Fatalf("no enrichment response published")
	}
	if resp.CustomerID() != "CUST-001" {
		t.Fatalf("expected CUST-001, got %s", resp.CustomerID())
	}
	if resp.AlarmPolicy != domain.AlarmBasic || resp.LogPolicy != domain.SubscriptionNormal {
		t.Fatalf("policy levels not attached: %+v", resp)
	}
	if resp.SubscriptionID != "SUB-CUST-001" {
		t.Fatalf("unexpected subscription id %s", resp.SubscriptionID)
	}
	if resp.EventMeta().CorrelationID != "corr-7" {
		t.Fatalf("correlation id must be preserved, got %s", resp.EventMeta().CorrelationID)
	}
}

func TestEnrichmentDroppedForUnknownDevice(t *testing.T) {
	b := bus.New(nil, nil)
	svc := NewService(nil, b, NewMemory())
	defer svc.Close()

	var responses atomic.Int32
	b.Subscribe(events.KindResponseEnrichment, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		responses.Add(1)
		return nil
	}))

	b.Publish(context.Background(), events.NewRequestCustomerValueEnrichment(
		"not-a-device", "not-a-device/x/value", "1", "value", "test", "corr-1"))

	if responses.Load() != 0 {
		t.Fatalf("unknown device must be silently dropped, got %d responses", responses.Load())
	}
}

func TestActiveSubscribersPublishesCustomerLoadedPerRecord(t *testing.T) {
	b := bus.New(nil, nil)
	svc := NewService(nil, b, NewMemory())
	defer svc.Close()

	var loaded atomic.Int32
	correlations := make(chan string, 4)
	b.Subscribe(events.KindCustomerLoaded, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		loaded.Add(1)
		correlations <- ev.EventMeta().CorrelationID
		return nil
	}))

	active, err := svc.ActiveSubscribers(context.Background())
	if err != nil {
		t.Fatalf("active subscribers: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one active customer, got %d", len(active))
	}
	if loaded.Load() != 1 {
		t.Fatalf("expected one CustomerLoaded publish, got %d", loaded.Load())
	}
	// Each load iteration originates a new workflow with a fresh id.
	if id := <-correlations; id == "" {
		t.Fatalf("CustomerLoaded must carry a minted correlation id")
	}
}
