package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// RecorderStats is a point-in-time snapshot of the recorder's write counts.
type RecorderStats struct {
	Written uint64
	Failed  uint64
	Skipped uint64
}

// Recorder is the only engine with a side effect outside the bus: it writes
// accepted log points to the telemetry store. Only value and unit readings
// are persisted; everything else on the log stream is skipped.
type Recorder struct {
	logger *slog.Logger
	bus    *bus.Bus
	store  ports.TelemetryStore
	obs    ports.Observability
	sub    *bus.Subscription

	written atomic.Uint64
	failed  atomic.Uint64
	skipped atomic.Uint64
}

func NewRecorder(logger *slog.Logger, b *bus.Bus, store ports.TelemetryStore, obs ports.Observability) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	e := &Recorder{
		logger: logger.With("component", "value_log_recorder"),
		bus:    b,
		store:  store,
		obs:    obs,
	}
	e.sub = b.Subscribe(events.KindLogPoint, bus.HandlerFunc(e.onLogPoint))
	return e
}

func (e *Recorder) onLogPoint(ctx context.Context, ev events.Event) error {
	point, ok := ev.(events.LogPoint)
	if !ok {
		return nil
	}
	if !e.recordable(point) {
		e.skipped.Add(1)
		return nil
	}

	status, err := e.store.Append(ctx, point.Topic, time.Now().UTC(), point.Value, point.EventMeta().CorrelationID)
	if err != nil {
		e.failed.Add(1)
		e.obs.IncCounter(metricPointsFailed, 1)
		e.logger.Error("telemetry write failed", "topic", point.Topic, "error", err)
		return err
	}
	e.written.Add(1)
	e.obs.IncCounter(metricPointsLogged, 1)
	e.logger.Debug("telemetry point written", "topic", point.Topic, "status", status)
	return nil
}

func (e *Recorder) recordable(point events.LogPoint) bool {
	if point.Status != domain.LogRequested && point.Status != domain.LogReceived {
		return false
	}
	if point.Value == "" {
		return false
	}
	return strings.HasSuffix(point.Topic, "/value") || strings.HasSuffix(point.Topic, "/unit")
}

// Stats returns the running write counters.
func (e *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Written: e.written.Load(),
		Failed:  e.failed.Load(),
		Skipped: e.skipped.Load(),
	}
}

func (e *Recorder) Close() { e.bus.Unsubscribe(e.sub) }
