package events

import "github.com/Sindrekaurin/grefur-backend/internal/domain"

// CustomerLoaded announces that the directory produced one active customer.
type CustomerLoaded struct {
	Meta
	Customer *domain.Customer
}

func NewCustomerLoaded(customer *domain.Customer, source, correlationID string) CustomerLoaded {
	return CustomerLoaded{Meta: NewMeta(source, correlationID), Customer: customer}
}

func (CustomerLoaded) Kind() Kind { return KindCustomerLoaded }

func (e CustomerLoaded) CustomerID() string {
	if e.Customer == nil {
		return ""
	}
	return e.Customer.ID
}

func (e CustomerLoaded) ScopeKey() string { return e.CustomerID() }

func (e CustomerLoaded) Payload() map[string]any {
	return map[string]any{"customerId": e.CustomerID()}
}

// CacheReady signals that a customer's devices are cache-resident.
type CacheReady struct {
	Meta
	CustomerID string
}

func NewCacheReady(customerID, source, correlationID string) CacheReady {
	return CacheReady{Meta: NewMeta(source, correlationID), CustomerID: customerID}
}

func (CacheReady) Kind() Kind         { return KindCacheReady }
func (e CacheReady) ScopeKey() string { return e.CustomerID }

func (e CacheReady) Payload() map[string]any {
	return map[string]any{"customerId": e.CustomerID}
}

// DeviceRegistered fans one device out of a loaded customer's device list.
type DeviceRegistered struct {
	Meta
	CustomerID string
	DeviceID   string
}

func NewDeviceRegistered(customerID, deviceID, source, correlationID string) DeviceRegistered {
	return DeviceRegistered{Meta: NewMeta(source, correlationID), CustomerID: customerID, DeviceID: deviceID}
}

func (DeviceRegistered) Kind() Kind         { return KindDeviceRegistered }
func (e DeviceRegistered) ScopeKey() string { return e.CustomerID }

func (e DeviceRegistered) Payload() map[string]any {
	return map[string]any{"customerId": e.CustomerID, "deviceId": e.DeviceID}
}

// TopicBoundStatus describes the outcome of binding a device topic.
type TopicBoundStatus int

const (
	TopicBoundSuccess TopicBoundStatus = iota
	TopicBoundIgnored
	TopicBoundFailed
)

func (s TopicBoundStatus) String() string {
	switch s {
	case TopicBoundSuccess:
		return "success"
	case TopicBoundIgnored:
		return "ignored"
	default:
		return "failed"
	}
}

// TopicBound records that a device's metadata or sensor topic was subscribed.
type TopicBound struct {
	Meta
	CustomerID    string
	DeviceID      string
	BaseTopic     string
	Status        TopicBoundStatus
	StatusMessage string
}

func NewTopicBound(customerID, deviceID, baseTopic string, status TopicBoundStatus, source, correlationID string) TopicBound {
	return TopicBound{
		Meta:       NewMeta(source, correlationID),
		CustomerID: customerID,
		DeviceID:   deviceID,
		BaseTopic:  baseTopic,
		Status:     status,
	}
}

func (TopicBound) Kind() Kind         { return KindTopicBound }
func (e TopicBound) ScopeKey() string { return e.CustomerID }

func (e TopicBound) Payload() map[string]any {
	return map[string]any{
		"customerId": e.CustomerID,
		"deviceId":   e.DeviceID,
		"baseTopic":  e.BaseTopic,
		"status":     e.Status.String(),
	}
}

// ValueReceived is a raw sensor reading classified as a value (not
// informational traffic).
type ValueReceived struct {
	Meta
	DeviceID  string
	Topic     string
	Value     string
	ValueType string
}

func NewValueReceived(deviceID, topic, value, valueType, source, correlationID string) ValueReceived {
	return ValueReceived{
		Meta:      NewMeta(source, correlationID),
		DeviceID:  deviceID,
		Topic:     topic,
		Value:     value,
		ValueType: valueType,
	}
}

func (ValueReceived) Kind() Kind { return KindValueReceived }

func (e ValueReceived) Payload() map[string]any {
	return map[string]any{
		"deviceId":  e.DeviceID,
		"topic":     e.Topic,
		"value":     e.Value,
		"valueType": e.ValueType,
	}
}

// AlarmRaised is the alarm engine's verdict on an anomalous value.
type AlarmRaised struct {
	Meta
	CustomerID string
	DeviceID   string
	Topic      string
	Value      float64
	Message    string
}

func NewAlarmRaised(customerID, deviceID, topic string, value float64, message, source, correlationID string) AlarmRaised {
	return AlarmRaised{
		Meta:       NewMeta(source, correlationID),
		CustomerID: customerID,
		DeviceID:   deviceID,
		Topic:      topic,
		Value:      value,
		Message:    message,
	}
}

func (AlarmRaised) Kind() Kind         { return KindAlarmRaised }
func (e AlarmRaised) ScopeKey() string { return e.CustomerID }

func (e AlarmRaised) Payload() map[string]any {
	return map[string]any{
		"customerId": e.CustomerID,
		"deviceId":   e.DeviceID,
		"topic":      e.Topic,
		"value":      e.Value,
		"message":    e.Message,
	}
}

// LogPoint requests (and later reports) one telemetry write.
type LogPoint struct {
	Meta
	CustomerID string
	DeviceID   string
	Topic      string
	ValueType  string
	Value      string
	Status     domain.LogStatus
}

func NewLogPoint(customerID, deviceID, topic, valueType, value string, status domain.LogStatus, source, correlationID string) LogPoint {
	return LogPoint{
		Meta:       NewMeta(source, correlationID),
		CustomerID: customerID,
		DeviceID:   deviceID,
		Topic:      topic,
		ValueType:  valueType,
		Value:      value,
		Status:     status,
	}
}

func (LogPoint) Kind() Kind         { return KindLogPoint }
func (e LogPoint) ScopeKey() string { return e.CustomerID }

// IsSuccess reports whether the point reached the store with a value attached.
func (e LogPoint) IsSuccess() bool {
	return (e.Status == domain.LogReceived || e.Status == domain.LogCreated) && e.Value != ""
}

func (e LogPoint) Payload() map[string]any {
	return map[string]any{
		"customerId": e.CustomerID,
		"deviceId":   e.DeviceID,
		"topic":      e.Topic,
		"valueType":  e.ValueType,
		"value":      e.Value,
		"status":     e.Status.String(),
	}
}

// TrainAndPublish asks the training collaborator for one model run.
type TrainAndPublish struct {
	Meta
	Config domain.TrainingConfig
}

func NewTrainAndPublish(cfg domain.TrainingConfig, source, correlationID string) TrainAndPublish {
	return TrainAndPublish{Meta: NewMeta(source, correlationID), Config: cfg}
}

func (TrainAndPublish) Kind() Kind         { return KindTrainAndPublish }
func (e TrainAndPublish) ScopeKey() string { return e.Config.CustomerID }

func (e TrainAndPublish) Payload() map[string]any {
	return map[string]any{
		"customerId":          e.Config.CustomerID,
		"targetMeasurementId": e.Config.TargetMeasurementID,
	}
}
