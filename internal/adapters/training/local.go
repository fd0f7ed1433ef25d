// Package training holds the trainer collaborator. The local trainer stands
// in for the external model service; it validates the run and reports a
// synthetic result.
package training

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

type Local struct {
	logger *slog.Logger
}

var _ ports.Trainer = (*Local)(nil)

func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{logger: logger.With("component", "local_trainer")}
}

func (l *Local) Train(ctx context.Context, cfg domain.TrainingConfig) (domain.TrainingResult, error) {
	if cfg.CustomerID == "" {
		return domain.TrainingResult{}, fmt.Errorf("training config missing customer id")
	}
	if cfg.TargetMeasurementID == "" {
		return domain.TrainingResult{}, fmt.Errorf("training config for %s missing target measurement", cfg.CustomerID)
	}
	if !cfg.Enabled {
		return domain.TrainingResult{
			Success: false,
			Message: fmt.Sprintf("training disabled for customer %s", cfg.CustomerID),
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return domain.TrainingResult{}, err
	}

	l.logger.Info("training pass completed",
		"customer_id", cfg.CustomerID,
		"target", cfg.TargetMeasurementID,
		"features", len(cfg.FeatureMeasurementIDs))
	return domain.TrainingResult{
		Success: true,
		Message: fmt.Sprintf("model v%d trained for %s", cfg.ModelVersion, cfg.CustomerID),
	}, nil
}
