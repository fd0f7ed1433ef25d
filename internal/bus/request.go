package bus

import (
	"context"
	"errors"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/events"
)

// DefaultRequestTimeout bounds a Request when the caller passes no timeout.
const DefaultRequestTimeout = 5 * time.Second

// ErrRequestTimeout reports that no matching response arrived in time. The
// caller decides whether to proceed degraded or drop the chain.
var ErrRequestTimeout = errors.New("bus: request timed out")

// Request publishes req and waits for the first respKind event accepted by
// match, racing it against the timeout and the caller's context. The
// temporary subscription is installed before publishing (so a synchronous
// responder cannot win a race against it) and removed on every exit path.
func (b *Bus) Request(
	ctx context.Context,
	req events.Event,
	respKind events.Kind,
	match func(events.Event) bool,
	timeout time.Duration,
) (events.Event, error) {
	if match == nil {
		match = func(events.Event) bool { return true }
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	resp := make(chan events.Event, 1)
	sub := b.Subscribe(respKind, HandlerFunc(func(_ context.Context, ev events.Event) error {
		if !match(ev) {
			return nil
		}
		select {
		case resp <- ev:
		default: // already answered
		}
		return nil
	}))
	defer b.Unsubscribe(sub)

	b.Publish(ctx, req)

	// Responders on this bus run synchronously inside Publish, so the common
	// case resolves without arming the timer.
	select {
	case ev := <-resp:
		return ev, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-resp:
		return ev, nil
	case <-timer.C:
		b.obs.IncCounter(metricRequestTimeouts, 1)
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
