package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

func TestRequestReceivesMatchingResponse(t *testing.T) {
	b := newTestBus()

	// Responder resolves the query synchronously during Publish.
	b.Subscribe(events.KindCustomerQuery, HandlerFunc(func(ctx context.Context, ev events.Event) error {
		q := ev.(events.CustomerQuery)
		b.Publish(ctx, events.NewCustomerQueryResponse(q.DeviceID, "CUST-001", "responder", q.EventMeta().CorrelationID))
		return nil
	}))

	resp, err := b.Request(
		context.Background(),
		events.NewCustomerQuery("Grefur_3461", "test", "corr-1"),
		events.KindCustomerQueryResponse,
		func(ev events.Event) bool {
			return ev.(events.CustomerQueryResponse).DeviceID == "Grefur_3461"
		},
		time.Second,
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.(events.CustomerQueryResponse).CustomerID; got != "CUST-001" {
		t.Fatalf("expected CUST-001, got %s", got)
	}
}

func TestRequestTimesOutWithoutMatch(t *testing.T) {
	b := newTestBus()

	// Responder answers for a different device; the filter must reject it.
	b.Subscribe(events.KindCustomerQuery, HandlerFunc(func(ctx context.Context, ev events.Event) error {
		b.Publish(ctx, events.NewCustomerQueryResponse("other-device", "CUST-002", "responder", "corr-x"))
		return nil
	}))

	_, err := b.Request(
		context.Background(),
		events.NewCustomerQuery("Grefur_3461", "test", "corr-1"),
		events.KindCustomerQueryResponse,
		func(ev events.Event) bool {
			return ev.(events.CustomerQueryResponse).DeviceID == "Grefur_3461"
		},
		20*time.Millisecond,
	)
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
}

func TestRequestRemovesTemporaryHandlerOnTimeout(t *testing.T) {
	b := newTestBus()

	for i := 0; i < 3; i++ {
		_, err := b.Request(
			context.Background(),
			events.NewCustomerQuery("dev", "test", "corr-1"),
			events.KindCustomerQueryResponse,
			nil,
			5*time.Millisecond,
		)
		if !errors.Is(err, ErrRequestTimeout) {
			t.Fatalf("expected timeout, got %v", err)
		}
	}

	if n := b.reg.count(events.KindCustomerQueryResponse); n != 0 {
		t.Fatalf("temporary handlers must not accumulate after timeouts, %d left", n)
	}
}

func TestRequestRemovesTemporaryHandlerOnSuccess(t *testing.T) {
	b := newTestBus()

	b.Subscribe(events.KindCustomerQuery, HandlerFunc(func(ctx context.Context, ev events.Event) error {
		b.Publish(ctx, events.NewCustomerQueryResponse("dev", "CUST-001", "responder", "corr-1"))
		return nil
	}))

	if _, err := b.Request(context.Background(), events.NewCustomerQuery("dev", "test", "corr-1"),
		events.KindCustomerQueryResponse, nil, time.Second); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if n := b.reg.count(events.KindCustomerQueryResponse); n != 0 {
		t.Fatalf("temporary handler must be removed after a match, %d left", n)
	}
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	b := newTestBus()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Request(ctx, events.NewCustomerQuery("dev", "test", "corr-1"),
			events.KindCustomerQueryResponse, nil, time.Minute)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("request did not observe cancellation")
	}
}
