// Package events defines the immutable envelopes routed by the bus.
//
// Every event carries a Meta (unique id, source, correlation id, UTC
// timestamp) and a Kind. Kinds form a small tree so that a handler subscribed
// to a parent kind receives every concrete child, which is the polymorphic
// dispatch the engines rely on.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags an event type. Parent kinds exist only for subscription; concrete
// events always report a leaf kind.
type Kind string

const (
	// KindAny matches every published event.
	KindAny Kind = "*"

	KindLifecycle      Kind = "lifecycle"
	KindSystemStarting Kind = "lifecycle.system_starting"
	KindSystemReady    Kind = "lifecycle.system_ready"
	KindSystemFailed   Kind = "lifecycle.system_failed"

	KindIntegration         Kind = "integration"
	KindMqttMessageReceived Kind = "integration.mqtt_message_received"
	KindBrokerConnection    Kind = "integration.broker_connection"

	KindCustomerLoaded   Kind = "customer_loaded"
	KindCacheReady       Kind = "cache_ready"
	KindDeviceRegistered Kind = "device_registered"
	KindTopicBound       Kind = "topic_bound"
	KindValueReceived    Kind = "value_received"
	KindAlarmRaised      Kind = "alarm_raised"
	KindLogPoint         Kind = "log_point"
	KindTrainAndPublish  Kind = "train_and_publish"

	KindQuery                 Kind = "query"
	KindRequestEnrichment     Kind = "query.request_customer_value_enrichment"
	KindResponseEnrichment    Kind = "query.response_customer_value_enrichment"
	KindCustomerQuery         Kind = "query.customer"
	KindCustomerQueryResponse Kind = "query.customer_response"
)

var parents = map[Kind]Kind{
	KindSystemStarting: KindLifecycle,
	KindSystemReady:    KindLifecycle,
	KindSystemFailed:   KindLifecycle,

	KindMqttMessageReceived: KindIntegration,
	KindBrokerConnection:    KindIntegration,

	KindRequestEnrichment:     KindQuery,
	KindResponseEnrichment:    KindQuery,
	KindCustomerQuery:         KindQuery,
	KindCustomerQueryResponse: KindQuery,
}

// Parent returns the next kind up the tree, or KindAny when there is none.
func (k Kind) Parent() Kind {
	if p, ok := parents[k]; ok {
		return p
	}
	return KindAny
}

// Lineage lists the kind itself followed by every ancestor up to KindAny.
func (k Kind) Lineage() []Kind {
	line := []Kind{k}
	for k != KindAny {
		k = k.Parent()
		line = append(line, k)
	}
	return line
}

// Meta is the envelope shared by every event. It is filled once at
// construction and never changes.
type Meta struct {
	ID            string
	Source        string
	CorrelationID string
	OccurredAt    time.Time
}

// EventMeta makes any struct embedding Meta satisfy the Event interface's
// envelope accessor. The accessor cannot be named Meta: the embedded field
// of that name would shadow it and the promotion would never happen.
func (m Meta) EventMeta() Meta { return m }

// NewMeta mints an envelope. A missing source or correlation id is a
// programming error and fails loudly rather than producing a malformed event.
func NewMeta(source, correlationID string) Meta {
	if source == "" {
		panic("events: source is required")
	}
	if correlationID == "" {
		panic("events: correlation id is required")
	}
	return Meta{
		ID:            uuid.NewString(),
		Source:        source,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewCorrelationID mints a fresh id for the start of a causal chain.
func NewCorrelationID() string { return uuid.NewString() }

// Event is an immutable record of something that happened.
type Event interface {
	Kind() Kind
	EventMeta() Meta
	// Payload renders the event's typed fields as generic structured data.
	// It is derived on demand so the two representations cannot diverge.
	Payload() map[string]any
}

// ScopeKeyer is implemented by events that must be serialized per scope on
// the scoped bus. An empty key collapses to the global scope.
type ScopeKeyer interface {
	ScopeKey() string
}
