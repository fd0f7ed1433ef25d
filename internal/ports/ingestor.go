package ports

import "context"

// Ingestor is the transport-facing collaborator that delivers raw messages
// onto the bus. The core only reacts to delivered messages and manages topic
// subscriptions; connection state is the collaborator's problem.
type Ingestor interface {
	Connect(ctx context.Context) error
	Subscribe(topic string) error
	IsConnected() bool
}
