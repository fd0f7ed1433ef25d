package ports

import (
	"context"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

// Trainer runs one model training pass. Failures surface in the result, not
// as an error, unless the collaborator itself is unusable.
type Trainer interface {
	Train(ctx context.Context, cfg domain.TrainingConfig) (domain.TrainingResult, error)
}
