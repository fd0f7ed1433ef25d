package domain

// SubscriptionLevel controls how much telemetry a customer is allowed to log.
type SubscriptionLevel int

const (
	SubscriptionNone SubscriptionLevel = iota
	SubscriptionNormal
	SubscriptionPremium
)

func (l SubscriptionLevel) String() string {
	switch l {
	case SubscriptionNormal:
		return "normal"
	case SubscriptionPremium:
		return "premium"
	default:
		return "none"
	}
}

// Description returns the customer-facing explanation of a logging tier.
func (l SubscriptionLevel) Description() string {
	switch l {
	case SubscriptionNone:
		return "No logging allowed. Real-time monitoring only."
	case SubscriptionNormal:
		return "Standard logging with 30 days retention."
	case SubscriptionPremium:
		return "High-frequency logging with 1 year retention and advanced analytics."
	default:
		return "Unknown subscription status."
	}
}

// AlarmLevel controls which anomaly analysis a customer receives.
type AlarmLevel int

const (
	AlarmNone AlarmLevel = iota
	AlarmBasic
	AlarmPremium
)

func (l AlarmLevel) String() string {
	switch l {
	case AlarmBasic:
		return "basic"
	case AlarmPremium:
		return "premium"
	default:
		return "none"
	}
}

// NotificationType selects the delivery channel for raised alarms.
type NotificationType int

const (
	NotifyNone NotificationType = iota
	NotifySMS
	NotifyEmail
	NotifySMSEmail
	NotifyGrefurSMSEmail
)

func (n NotificationType) String() string {
	switch n {
	case NotifySMS:
		return "sms"
	case NotifyEmail:
		return "email"
	case NotifySMSEmail:
		return "sms+email"
	case NotifyGrefurSMSEmail:
		return "grefur+sms+email"
	default:
		return "none"
	}
}

// Customer is a directory record. It is produced by the directory collaborator
// and held read-only by everything downstream; the pipeline re-publishes it by
// reference but never mutates it.
type Customer struct {
	ID                string
	RegisteredDevices []string
	LogSubscription   SubscriptionLevel
	AlarmSubscription AlarmLevel
	Notification      NotificationType
}

// IsActiveSubscriber reports whether any subscription or notification flag is
// set beyond its zero value.
func (c *Customer) IsActiveSubscriber() bool {
	if c == nil {
		return false
	}
	return c.LogSubscription != SubscriptionNone ||
		c.AlarmSubscription != AlarmNone ||
		c.Notification != NotifyNone
}
