package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

func newTestBus() *Bus {
	return New(nil, nil)
}

func TestPublishDeliversToExactKind(t *testing.T) {
	b := newTestBus()

	var got atomic.Int32
	b.Subscribe(events.KindSystemReady, HandlerFunc(func(_ context.Context, ev events.Event) error {
		got.Add(1)
		return nil
	}))

	b.Publish(context.Background(), events.NewSystemReady("test", "corr-1"))

	if got.Load() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", got.Load())
	}
}

func TestPublishPolymorphicDelivery(t *testing.T) {
	b := newTestBus()

	var lifecycle, any atomic.Int32
	b.Subscribe(events.KindLifecycle, HandlerFunc(func(_ context.Context, ev events.Event) error {
		lifecycle.Add(1)
		return nil
	}))
	b.Subscribe(events.KindAny, HandlerFunc(func(_ context.Context, ev events.Event) error {
		any.Add(1)
		return nil
	}))

	b.Publish(context.Background(), events.NewSystemReady("test", "corr-1"))

	if lifecycle.Load() != 1 {
		t.Fatalf("parent-kind subscriber should receive concrete child once, got %d", lifecycle.Load())
	}
	if any.Load() != 1 {
		t.Fatalf("KindAny subscriber should receive every event once, got %d", any.Load())
	}

	// An event from another branch of the tree must not reach the lifecycle
	// subscriber.
	b.Publish(context.Background(), events.NewValueReceived("dev", "t", "1", "value", "test", "corr-2"))
	if lifecycle.Load() != 1 {
		t.Fatalf("lifecycle subscriber received unrelated kind")
	}
	if any.Load() != 2 {
		t.Fatalf("KindAny subscriber should have 2 deliveries, got %d", any.Load())
	}
}

func TestPublishFanOutSurvivesFailingHandler(t *testing.T) {
	b := newTestBus()

	var ran atomic.Int32
	b.Subscribe(events.KindSystemReady, HandlerFunc(func(_ context.Context, ev events.Event) error {
		return errors.New("boom")
	}))
	b.Subscribe(events.KindSystemReady, HandlerFunc(func(_ context.Context, ev events.Event) error {
		panic("much worse boom")
	}))
	b.Subscribe(events.KindSystemReady, HandlerFunc(func(_ context.Context, ev events.Event) error {
		ran.Add(1)
		return nil
	}))

	b.Publish(context.Background(), events.NewSystemReady("test", "corr-1"))

	if ran.Load() != 1 {
		t.Fatalf("healthy sibling handler should still run, got %d", ran.Load())
	}
}

func TestDuplicateSubscriptionInvokedPerRegistration(t *testing.T) {
	b := newTestBus()

	var got atomic.Int32
	h := HandlerFunc(func(_ context.Context, ev events.Event) error {
		got.Add(1)
		return nil
	})
	b.Subscribe(events.KindSystemReady, h)
	b.Subscribe(events.KindSystemReady, h)

	b.Publish(context.Background(), events.NewSystemReady("test", "corr-1"))

	if got.Load() != 2 {
		t.Fatalf("handler registered twice should be invoked twice, got %d", got.Load())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := newTestBus()

	var got atomic.Int32
	sub := b.Subscribe(events.KindSystemReady, HandlerFunc(func(_ context.Context, ev events.Event) error {
		got.Add(1)
		return nil
	}))

	b.Publish(context.Background(), events.NewSystemReady("test", "corr-1"))
	b.Unsubscribe(sub)
	b.Publish(context.Background(), events.NewSystemReady("test", "corr-2"))

	if got.Load() != 1 {
		t.Fatalf("expected one delivery before unsubscribe, got %d", got.Load())
	}
}

func TestSubscribeNilHandlerPanics(t *testing.T) {
	b := newTestBus()
	defer func() {
		if recover() == nil {
			t.Fatalf("subscribing a nil handler should panic")
		}
	}()
	b.Subscribe(events.KindSystemReady, nil)
}
