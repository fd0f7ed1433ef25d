package events

// SystemStarting marks the beginning of a boot (or re-boot after reconnect).
type SystemStarting struct {
	Meta
}

func NewSystemStarting(source, correlationID string) SystemStarting {
	return SystemStarting{Meta: NewMeta(source, correlationID)}
}

func (SystemStarting) Kind() Kind              { return KindSystemStarting }
func (SystemStarting) Payload() map[string]any { return nil }

// SystemReady signals that the core is wired and engines may begin their
// workflows. It is re-published on every reconnect, so consumers must be
// idempotent to repeated Ready signals.
type SystemReady struct {
	Meta
}

func NewSystemReady(source, correlationID string) SystemReady {
	return SystemReady{Meta: NewMeta(source, correlationID)}
}

func (SystemReady) Kind() Kind              { return KindSystemReady }
func (SystemReady) Payload() map[string]any { return nil }

// SystemFailed reports that a boot attempt did not complete.
type SystemFailed struct {
	Meta
	Reason string
}

func NewSystemFailed(reason, source, correlationID string) SystemFailed {
	return SystemFailed{Meta: NewMeta(source, correlationID), Reason: reason}
}

func (SystemFailed) Kind() Kind { return KindSystemFailed }

func (e SystemFailed) Payload() map[string]any {
	return map[string]any{"reason": e.Reason}
}
