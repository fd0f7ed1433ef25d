package events

// BrokerStatus describes the outcome of an MQTT connection attempt.
type BrokerStatus int

const (
	BrokerConnected BrokerStatus = iota
	BrokerConnectionFailed
	BrokerServerUnreachable
	BrokerDisconnected
)

func (s BrokerStatus) String() string {
	switch s {
	case BrokerConnected:
		return "connected"
	case BrokerConnectionFailed:
		return "connection_failed"
	case BrokerServerUnreachable:
		return "server_unreachable"
	case BrokerDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// BrokerConnection reports a transport-level state change from the ingestion
// collaborator.
type BrokerConnection struct {
	Meta
	Status  BrokerStatus
	Broker  string
	Message string
}

func NewBrokerConnection(status BrokerStatus, broker, message, source, correlationID string) BrokerConnection {
	return BrokerConnection{
		Meta:    NewMeta(source, correlationID),
		Status:  status,
		Broker:  broker,
		Message: message,
	}
}

func (BrokerConnection) Kind() Kind { return KindBrokerConnection }

func (e BrokerConnection) Payload() map[string]any {
	return map[string]any{
		"status":  e.Status.String(),
		"broker":  e.Broker,
		"message": e.Message,
	}
}

// MqttMessageReceived is a raw message delivered by the ingestion
// collaborator. Each message starts a fresh causal chain.
type MqttMessageReceived struct {
	Meta
	DeviceID   string
	ValueType  string
	Topic      string
	RawPayload string
}

func NewMqttMessageReceived(deviceID, valueType, topic, rawPayload, source, correlationID string) MqttMessageReceived {
	return MqttMessageReceived{
		Meta:       NewMeta(source, correlationID),
		DeviceID:   deviceID,
		ValueType:  valueType,
		Topic:      topic,
		RawPayload: rawPayload,
	}
}

func (MqttMessageReceived) Kind() Kind { return KindMqttMessageReceived }

func (e MqttMessageReceived) Payload() map[string]any {
	return map[string]any{
		"deviceId":   e.DeviceID,
		"valueType":  e.ValueType,
		"topic":      e.Topic,
		"rawPayload": e.RawPayload,
	}
}
