package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/engine"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const (
	connectPollInterval = 5 * time.Second
	healthLogInterval   = 30 * time.Second
)

// Worker keeps the broker connection alive. While disconnected it retries on
// a fixed cadence; after each successful (re)connect it boots the pipeline
// once, so the startup chain replays and topics are re-bound.
type Worker struct {
	logger    *slog.Logger
	bus       *bus.Bus
	ingestor  ports.Ingestor
	bootstrap *engine.Bootstrap
	recorder  *engine.Recorder

	booted bool
}

func NewWorker(logger *slog.Logger, b *bus.Bus, ingestor ports.Ingestor, bootstrap *engine.Bootstrap, recorder *engine.Recorder) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		logger:    logger.With("component", "worker"),
		bus:       b,
		ingestor:  ingestor,
		bootstrap: bootstrap,
		recorder:  recorder,
	}
}

func (w *Worker) Run(ctx context.Context) {
	w.ensureConnected(ctx)

	poll := time.NewTicker(connectPollInterval)
	defer poll.Stop()
	health := time.NewTicker(healthLogInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			w.ensureConnected(ctx)
		case <-health.C:
			stats := w.recorder.Stats()
			w.logger.Info("health",
				"broker_connected", w.ingestor.IsConnected(),
				"points_written", stats.Written,
				"points_failed", stats.Failed,
				"points_skipped", stats.Skipped)
		}
	}
}

func (w *Worker) ensureConnected(ctx context.Context) {
	if w.ingestor.IsConnected() {
		if !w.booted {
			w.booted = true
			w.bootstrap.Start(ctx)
		}
		return
	}
	w.booted = false

	w.logger.Info("broker disconnected, attempting connect")
	if err := w.ingestor.Connect(ctx); err != nil {
		w.logger.Error("connect failed", "err", err)
		w.bus.Publish(ctx, events.NewSystemFailed(err.Error(), "Worker", events.NewCorrelationID()))
		return
	}
	w.booted = true
	w.bootstrap.Start(ctx)
}
