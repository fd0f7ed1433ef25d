package events

import "github.com/Sindrekaurin/grefur-backend/internal/domain"

// RequestCustomerValueEnrichment asks the directory to attach customer
// identity and policy levels to a raw value.
type RequestCustomerValueEnrichment struct {
	Meta
	DeviceID  string
	Topic     string
	Value     string
	ValueType string
}

func NewRequestCustomerValueEnrichment(deviceID, topic, value, valueType, source, correlationID string) RequestCustomerValueEnrichment {
	return RequestCustomerValueEnrichment{
		Meta:      NewMeta(source, correlationID),
		DeviceID:  deviceID,
		Topic:     topic,
		Value:     value,
		ValueType: valueType,
	}
}

func (RequestCustomerValueEnrichment) Kind() Kind { return KindRequestEnrichment }

func (e RequestCustomerValueEnrichment) Payload() map[string]any {
	return map[string]any{
		"deviceId":  e.DeviceID,
		"topic":     e.Topic,
		"value":     e.Value,
		"valueType": e.ValueType,
	}
}

// ResponseCustomerValueEnrichment carries the resolved customer and policy
// levels back to the deciding engines.
type ResponseCustomerValueEnrichment struct {
	Meta
	Customer       *domain.Customer
	SubscriptionID string
	AlarmPolicy    domain.AlarmLevel
	LogPolicy      domain.SubscriptionLevel
	DeviceID       string
	Topic          string
	Value          string
	ValueType      string
}

func NewResponseCustomerValueEnrichment(
	customer *domain.Customer,
	subscriptionID string,
	alarmPolicy domain.AlarmLevel,
	logPolicy domain.SubscriptionLevel,
	deviceID, topic, value, valueType, source, correlationID string,
) ResponseCustomerValueEnrichment {
	return ResponseCustomerValueEnrichment{
		Meta:           NewMeta(source, correlationID),
		Customer:       customer,
		SubscriptionID: subscriptionID,
		AlarmPolicy:    alarmPolicy,
		LogPolicy:      logPolicy,
		DeviceID:       deviceID,
		Topic:          topic,
		Value:          value,
		ValueType:      valueType,
	}
}

func (ResponseCustomerValueEnrichment) Kind() Kind { return KindResponseEnrichment }

func (e ResponseCustomerValueEnrichment) CustomerID() string {
	if e.Customer == nil {
		return ""
	}
	return e.Customer.ID
}

func (e ResponseCustomerValueEnrichment) ScopeKey() string { return e.CustomerID() }

func (e ResponseCustomerValueEnrichment) Payload() map[string]any {
	return map[string]any{
		"customerId":     e.CustomerID(),
		"subscriptionId": e.SubscriptionID,
		"alarmPolicy":    e.AlarmPolicy.String(),
		"logPolicy":      e.LogPolicy.String(),
		"deviceId":       e.DeviceID,
		"topic":          e.Topic,
		"value":          e.Value,
		"valueType":      e.ValueType,
	}
}

// CustomerQuery resolves a device id to its owning customer id.
type CustomerQuery struct {
	Meta
	DeviceID string
}

func NewCustomerQuery(deviceID, source, correlationID string) CustomerQuery {
	return CustomerQuery{Meta: NewMeta(source, correlationID), DeviceID: deviceID}
}

func (CustomerQuery) Kind() Kind { return KindCustomerQuery }

func (e CustomerQuery) Payload() map[string]any {
	return map[string]any{"deviceId": e.DeviceID}
}

// CustomerQueryResponse answers a CustomerQuery.
type CustomerQueryResponse struct {
	Meta
	DeviceID   string
	CustomerID string
}

func NewCustomerQueryResponse(deviceID, customerID, source, correlationID string) CustomerQueryResponse {
	return CustomerQueryResponse{Meta: NewMeta(source, correlationID), DeviceID: deviceID, CustomerID: customerID}
}

func (CustomerQueryResponse) Kind() Kind         { return KindCustomerQueryResponse }
func (e CustomerQueryResponse) ScopeKey() string { return e.CustomerID }

func (e CustomerQueryResponse) Payload() map[string]any {
	return map[string]any{"deviceId": e.DeviceID, "customerId": e.CustomerID}
}
