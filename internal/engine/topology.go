package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// Topic classes that never carry sensor values. Messages on these are
// dropped before any downstream engine sees them.
var (
	denyPrefixes = []string{"test/", "internal/"}
	denySuffixes = []string{"/debug", "/raw", "/config", "/info/baseTopic"}
)

func denylisted(topic string) bool {
	for _, p := range denyPrefixes {
		if strings.HasPrefix(topic, p) {
			return true
		}
	}
	for _, s := range denySuffixes {
		if strings.HasSuffix(topic, s) {
			return true
		}
	}
	return false
}

// TopicTopology manages the broker-side topic tree: it binds each registered
// device's metadata topic, expands announced base topics into sensor
// wildcards, and classifies incoming traffic into values versus noise.
type TopicTopology struct {
	logger   *slog.Logger
	bus      *bus.Bus
	ingestor ports.Ingestor
	subs     []*bus.Subscription

	mu         sync.Mutex
	baseTopics map[string]string // device id -> announced base topic
}

func NewTopicTopology(logger *slog.Logger, b *bus.Bus, ingestor ports.Ingestor) *TopicTopology {
	if logger == nil {
		logger = slog.Default()
	}
	e := &TopicTopology{
		logger:     logger.With("component", "topic_topology_engine"),
		bus:        b,
		ingestor:   ingestor,
		baseTopics: make(map[string]string),
	}
	e.subs = append(e.subs,
		b.Subscribe(events.KindDeviceRegistered, bus.HandlerFunc(e.onDeviceRegistered)),
		b.Subscribe(events.KindMqttMessageReceived, bus.HandlerFunc(e.onMessage)),
	)
	return e
}

func (e *TopicTopology) onDeviceRegistered(ctx context.Context, ev events.Event) error {
	reg, ok := ev.(events.DeviceRegistered)
	if !ok {
		return nil
	}
	metaTopic := reg.DeviceID + "/info/baseTopic"
	if !e.ingestor.IsConnected() {
		e.logger.Error("cannot bind metadata topic, broker offline", "topic", metaTopic)
		return nil
	}
	if err := e.ingestor.Subscribe(metaTopic); err != nil {
		return fmt.Errorf("subscribe %s: %w", metaTopic, err)
	}
	e.bus.Publish(ctx, events.NewTopicBound(
		reg.CustomerID, reg.DeviceID, metaTopic, events.TopicBoundSuccess,
		"TopicTopologyEngine", reg.EventMeta().CorrelationID))
	e.logger.Info("metadata topic bound", "topic", metaTopic, "device_id", reg.DeviceID)
	return nil
}

func (e *TopicTopology) onMessage(ctx context.Context, ev events.Event) error {
	msg, ok := ev.(events.MqttMessageReceived)
	if !ok {
		return nil
	}
	if strings.HasSuffix(msg.Topic, "/info/baseTopic") {
		return e.bindSensorPattern(ctx, msg)
	}
	if denylisted(msg.Topic) {
		e.logger.Debug("dropping non-value topic", "topic", msg.Topic)
		return nil
	}
	e.bus.Publish(ctx, events.NewValueReceived(
		msg.DeviceID, msg.Topic, msg.RawPayload, msg.ValueType,
		"TopicTopologyEngine", msg.EventMeta().CorrelationID))
	return nil
}

// bindSensorPattern expands a base-topic announcement into the device's
// sensor wildcard subscription, rooted at the announced prefix.
// Announcements start their own causal chain.
func (e *TopicTopology) bindSensorPattern(ctx context.Context, msg events.MqttMessageReceived) error {
	base := strings.TrimSpace(msg.RawPayload)
	if base == "" {
		e.logger.Warn("empty base topic announced, ignoring", "device_id", msg.DeviceID)
		return nil
	}
	pattern := msg.DeviceID + "/" + base + "/#"
	if !e.ingestor.IsConnected() {
		e.logger.Error("cannot bind sensor pattern, broker offline", "pattern", pattern)
		return nil
	}
	if err := e.ingestor.Subscribe(pattern); err != nil {
		return fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	e.mu.Lock()
	e.baseTopics[msg.DeviceID] = base
	e.mu.Unlock()

	e.bus.Publish(ctx, events.NewTopicBound(
		"", msg.DeviceID, base, events.TopicBoundSuccess,
		"TopicTopologyEngine", events.NewCorrelationID()))
	e.logger.Info("sensor pattern bound", "pattern", pattern, "base_topic", base)
	return nil
}

// BaseTopic returns the announced base topic for a device, if any.
func (e *TopicTopology) BaseTopic(deviceID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	topic, ok := e.baseTopics[deviceID]
	return topic, ok
}

func (e *TopicTopology) Close() {
	for _, sub := range e.subs {
		e.bus.Unsubscribe(sub)
	}
}
