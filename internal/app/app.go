// Package app wires the bus, engines, and collaborators into one runnable
// backend and owns their teardown order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/adapters/mqttingest"
	"github.com/Sindrekaurin/grefur-backend/internal/adapters/observability"
	"github.com/Sindrekaurin/grefur-backend/internal/adapters/store"
	"github.com/Sindrekaurin/grefur-backend/internal/adapters/training"
	"github.com/Sindrekaurin/grefur-backend/internal/api"
	"github.com/Sindrekaurin/grefur-backend/internal/app/config"
	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/cache"
	"github.com/Sindrekaurin/grefur-backend/internal/directory"
	"github.com/Sindrekaurin/grefur-backend/internal/engine"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// App owns one bus instance and every component attached to it. Close tears
// everything down in reverse construction order; after Close the bus has no
// registered handlers left.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	bus    *bus.Bus
	scoped *bus.ScopedBus
	obs    *observability.PromObs

	ingestor  *mqttingest.Client
	cache     *cache.Service
	dirSvc    *directory.Service
	recorder  *engine.Recorder
	bootstrap *engine.Bootstrap
	bridge    *bus.Subscription

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	obs := observability.NewPromObs()
	b := bus.New(logger, obs)
	scoped := bus.NewScoped(logger, obs)

	a := &App{cfg: cfg, logger: logger, bus: b, scoped: scoped, obs: obs}

	mem := directory.NewMemory()
	a.dirSvc = directory.NewService(logger, b, mem)
	a.closers = append(a.closers, a.dirSvc.Close)

	a.cache = cache.New(logger, b, mem, obs,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithSweepInterval(cfg.Cache.SweepInterval))
	a.closers = append(a.closers, a.cache.Close)

	ingestor, err := mqttingest.New(logger, b, cfg.MQTT)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("mqtt ingestor: %w", err)
	}
	a.ingestor = ingestor
	a.closers = append(a.closers, ingestor.Close)

	telemetry, err := newStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.bootstrap = engine.NewBootstrap(logger, b)
	for _, closer := range []interface{ Close() }{
		engine.NewCustomerLoad(logger, b, a.dirSvc),
		engine.NewCacheWarmup(logger, b, mem, a.cache),
		engine.NewDeviceDiscovery(logger, b),
		engine.NewTopicTopology(logger, b, ingestor),
		engine.NewSubscription(logger, b),
		engine.NewAlarm(logger, b, obs),
		engine.NewLogger(logger, b),
		engine.NewValueHandler(logger, b, cfg.Bus.RequestTimeout),
		engine.NewPrediction(logger, b, training.NewLocal(logger)),
		engine.NewNotifier(logger, scoped, mem),
	} {
		a.closers = append(a.closers, closer.Close)
	}

	a.recorder = engine.NewRecorder(logger, b, telemetry, obs)
	a.closers = append(a.closers, a.recorder.Close)

	// Alarms cross over to the scoped bus, where notification handling is
	// serialized per customer.
	a.bridge = b.Subscribe(events.KindAlarmRaised, bus.HandlerFunc(func(ctx context.Context, ev events.Event) error {
		scoped.Publish(ctx, ev)
		return nil
	}))

	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.TelemetryStore, error) {
	switch cfg.Store.Backend {
	case "timescale":
		s, err := store.Open(ctx, cfg.Store.ConnString, cfg.Store.Table)
		if err != nil {
			return nil, fmt.Errorf("timescale store: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewFileStore(logger, cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		return s, nil
	}
}

// Run serves the HTTP surfaces and drives the connection worker until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	apiMux := http.NewServeMux()
	apiMux.Handle("/v1/trigger", api.NewTriggerHandler(a.logger, a.bus, a.cfg.Training))
	apiSrv := &http.Server{Addr: a.cfg.API.Addr, Handler: apiMux}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", a.obs.Handler())
	metricsSrv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: metricsMux}

	errCh := make(chan error, 2)
	for _, srv := range []*http.Server{apiSrv, metricsSrv} {
		srv := srv
		go func() {
			a.logger.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	worker := NewWorker(a.logger, a.bus, a.ingestor, a.bootstrap, a.recorder)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.logger.Error("http server failed", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiSrv, metricsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("http shutdown", "addr", srv.Addr, "err", err)
		}
	}
	<-workerDone
	return runErr
}

// Close detaches every component from the bus, newest first.
func (a *App) Close() {
	if a.bridge != nil {
		a.bus.Unsubscribe(a.bridge)
		a.bridge = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
