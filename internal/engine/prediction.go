package engine

import (
	"context"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// Prediction hands training requests to the trainer collaborator. The run is
// fire-and-forget: the outcome is logged, never published back on the bus.
type Prediction struct {
	logger  *slog.Logger
	bus     *bus.Bus
	trainer ports.Trainer
	sub     *bus.Subscription
}

func NewPrediction(logger *slog.Logger, b *bus.Bus, trainer ports.Trainer) *Prediction {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Prediction{logger: logger.With("component", "prediction_engine"), bus: b, trainer: trainer}
	e.sub = b.Subscribe(events.KindTrainAndPublish, bus.HandlerFunc(e.onTrainAndPublish))
	return e
}

func (e *Prediction) onTrainAndPublish(ctx context.Context, ev events.Event) error {
	req, ok := ev.(events.TrainAndPublish)
	if !ok {
		return nil
	}
	result, err := e.trainer.Train(ctx, req.Config)
	if err != nil {
		e.logger.Error("training run failed",
			"customer_id", req.Config.CustomerID,
			"error", err)
		return err
	}
	e.logger.Info("training run finished",
		"customer_id", req.Config.CustomerID,
		"success", result.Success,
		"message", result.Message)
	return nil
}

func (e *Prediction) Close() { e.bus.Unsubscribe(e.sub) }
