// Package directory is the customer/subscription data source. The Memory
// implementation stands in for the real directory service; Service is the
// bus-facing responder built on top of any ports.Directory.
package directory

import (
	"context"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// Memory is an in-memory, read-only customer directory.
type Memory struct {
	customers []*domain.Customer
}

// NewMemory seeds a directory. With no arguments it carries the default
// demo customers.
func NewMemory(customers ...*domain.Customer) *Memory {
	if len(customers) == 0 {
		customers = SeedCustomers()
	}
	return &Memory{customers: customers}
}

// SeedCustomers returns the built-in demo records.
func SeedCustomers() []*domain.Customer {
	return []*domain.Customer{
		{
			ID:                "CUST-001",
			RegisteredDevices: []string{"Grefur_3461", "Grefur_235cfe"},
			LogSubscription:   domain.SubscriptionNormal,
			AlarmSubscription: domain.AlarmBasic,
			Notification:      domain.NotifyEmail,
		},
		{
			ID:                "CUST-002",
			RegisteredDevices: []string{"Grefur_3462"},
			LogSubscription:   domain.SubscriptionNone,
			AlarmSubscription: domain.AlarmNone,
			Notification:      domain.NotifyNone,
		},
	}
}

// ActiveCustomers returns every customer with a non-default subscription or
// notification flag.
func (m *Memory) ActiveCustomers(context.Context) ([]*domain.Customer, error) {
	var active []*domain.Customer
	for _, c := range m.customers {
		if c.IsActiveSubscriber() {
			active = append(active, c)
		}
	}
	return active, nil
}

func (m *Memory) CustomerByID(_ context.Context, customerID string) (*domain.Customer, error) {
	for _, c := range m.customers {
		if c.ID == customerID {
			return c, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (m *Memory) CustomerByDevice(_ context.Context, deviceID string) (*domain.Customer, error) {
	for _, c := range m.customers {
		for _, dev := range c.RegisteredDevices {
			if dev == deviceID {
				return c, nil
			}
		}
	}
	return nil, ports.ErrNotFound
}

var _ ports.Directory = (*Memory)(nil)
