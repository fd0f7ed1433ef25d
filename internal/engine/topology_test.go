package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

type fakeIngestor struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	failSub   error
}

func (f *fakeIngestor) Connect(context.Context) error { return nil }

func (f *fakeIngestor) Subscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSub != nil {
		return f.failSub
	}
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakeIngestor) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeIngestor) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

func TestDeviceRegistrationBindsMetadataTopic(t *testing.T) {
	b := bus.New(nil, nil)
	ing := &fakeIngestor{connected: true}
	e := NewTopicTopology(nil, b, ing)
	defer e.Close()

	var bound atomic.Value
	b.Subscribe(events.KindTopicBound, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		bound.Store(ev.(events.TopicBound))
		return nil
	}))

	b.Publish(context.Background(),
		events.NewDeviceRegistered("CUST-001", "Grefur_3461", "test", "corr-9"))

	topics := ing.subscribed()
	if len(topics) != 1 || topics[0] != "Grefur_3461/info/baseTopic" {
		t.Fatalf("expected metadata subscription, got %v", topics)
	}
	tb, ok := bound.Load().(events.TopicBound)
	if !ok {
		t.Fatalf("no TopicBound published")
	}
	if tb.Status != events.TopicBoundSuccess {
		t.Fatalf("status = %s", tb.Status)
	}
	if tb.EventMeta().CorrelationID != "corr-9" {
		t.Fatalf("binding must stay on the registration chain, got %s", tb.EventMeta().CorrelationID)
	}
}

func TestOfflineBrokerSkipsBinding(t *testing.T) {
	b := bus.New(nil, nil)
	ing := &fakeIngestor{connected: false}
	e := NewTopicTopology(nil, b, ing)
	defer e.Close()

	var bound atomic.Int32
	b.Subscribe(events.KindTopicBound, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		bound.Add(1)
		return nil
	}))

	b.Publish(context.Background(),
		events.NewDeviceRegistered("CUST-001", "Grefur_3461", "test", "corr-9"))

	if len(ing.subscribed()) != 0 || bound.Load() != 0 {
		t.Fatalf("offline broker must not bind, topics=%v bound=%d", ing.subscribed(), bound.Load())
	}
}

func TestDenylistedTopicsAreDropped(t *testing.T) {
	b := bus.New(nil, nil)
	e := NewTopicTopology(nil, b, &fakeIngestor{connected: true})
	defer e.Close()

	var values atomic.Int32
	b.Subscribe(events.KindValueReceived, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		values.Add(1)
		return nil
	}))

	ctx := context.Background()
	for _, topic := range []string{
		"test/Grefur_3461/x",
		"internal/health",
		"Grefur_3461/900/RT401/debug",
		"Grefur_3461/900/RT401/raw",
		"Grefur_3461/900/RT401/config",
	} {
		b.Publish(ctx, events.NewMqttMessageReceived("Grefur_3461", "debug", topic, "1", "test", "corr-1"))
	}
	if values.Load() != 0 {
		t.Fatalf("denylisted topics produced %d values", values.Load())
	}

	b.Publish(ctx, events.NewMqttMessageReceived("Grefur_3461", "value", "Grefur_3461/900/RT401/value", "21.5", "test", "corr-2"))
	if values.Load() != 1 {
		t.Fatalf("value topic not forwarded, count=%d", values.Load())
	}
}

func TestBaseTopicAnnouncementBindsSensorPattern(t *testing.T) {
	b := bus.New(nil, nil)
	ing := &fakeIngestor{connected: true}
	e := NewTopicTopology(nil, b, ing)
	defer e.Close()

	var bound atomic.Value
	b.Subscribe(events.KindTopicBound, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		bound.Store(ev.(events.TopicBound))
		return nil
	}))

	b.Publish(context.Background(), events.NewMqttMessageReceived(
		"Grefur_3461", "baseTopic", "Grefur_3461/info/baseTopic", "900", "test", "corr-3"))

	// The wildcard must be rooted at the announced prefix, not a fixed
	// segment.
	topics := ing.subscribed()
	if len(topics) != 1 || topics[0] != "Grefur_3461/900/#" {
		t.Fatalf("expected sensor wildcard under the announced base, got %v", topics)
	}
	tb, ok := bound.Load().(events.TopicBound)
	if !ok {
		t.Fatalf("no TopicBound for the announcement")
	}
	if tb.BaseTopic != "900" {
		t.Fatalf("base topic = %s", tb.BaseTopic)
	}
	// Announcements open a new workflow, not the inbound message's chain.
	if tb.EventMeta().CorrelationID == "corr-3" {
		t.Fatalf("announcement must mint its own correlation id")
	}
	if got, ok := e.BaseTopic("Grefur_3461"); !ok || got != "900" {
		t.Fatalf("base topic not recorded: %q %v", got, ok)
	}
}

func TestAnnouncedBaseTopicsDifferPerDevice(t *testing.T) {
	b := bus.New(nil, nil)
	ing := &fakeIngestor{connected: true}
	e := NewTopicTopology(nil, b, ing)
	defer e.Close()

	ctx := context.Background()
	b.Publish(ctx, events.NewMqttMessageReceived(
		"Grefur_3461", "baseTopic", "Grefur_3461/info/baseTopic", " sensors/floor1 ", "test", "corr-1"))
	b.Publish(ctx, events.NewMqttMessageReceived(
		"Grefur_3462", "baseTopic", "Grefur_3462/info/baseTopic", "payload", "test", "corr-2"))
	b.Publish(ctx, events.NewMqttMessageReceived(
		"Grefur_235cfe", "baseTopic", "Grefur_235cfe/info/baseTopic", "  ", "test", "corr-3"))

	topics := ing.subscribed()
	want := []string{"Grefur_3461/sensors/floor1/#", "Grefur_3462/payload/#"}
	if len(topics) != len(want) {
		t.Fatalf("subscriptions = %v, want %v (blank announcement ignored)", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Fatalf("subscription %d = %s, want %s", i, topics[i], want[i])
		}
	}
}

func TestValueForwardKeepsCorrelation(t *testing.T) {
	b := bus.New(nil, nil)
	e := NewTopicTopology(nil, b, &fakeIngestor{connected: true})
	defer e.Close()

	var got atomic.Value
	b.Subscribe(events.KindValueReceived, bus.HandlerFunc(func(_ context.Context, ev events.Event) error {
		got.Store(ev.(events.ValueReceived))
		return nil
	}))

	b.Publish(context.Background(), events.NewMqttMessageReceived(
		"Grefur_3461", "value", "Grefur_3461/900/RT401/value", "21.5", "test", "corr-4"))

	v, ok := got.Load().(events.ValueReceived)
	if !ok {
		t.Fatalf("no ValueReceived published")
	}
	if v.EventMeta().CorrelationID != "corr-4" || v.Value != "21.5" || v.DeviceID != "Grefur_3461" {
		t.Fatalf("unexpected forward: %+v", v)
	}
}
