package ports

import (
	"context"
	"errors"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

// ErrNotFound reports a lookup miss from a collaborator.
var ErrNotFound = errors.New("not found")

// Directory is the customer/subscription data source.
type Directory interface {
	ActiveCustomers(ctx context.Context) ([]*domain.Customer, error)
	CustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)
	CustomerByDevice(ctx context.Context, deviceID string) (*domain.Customer, error)
}
