package domain

import "time"

// LogStatus tracks a telemetry write through the store collaborator.
type LogStatus int

const (
	LogRequested LogStatus = iota
	LogReceived
	LogCreated
	LogDeleted
	LogFailed
)

func (s LogStatus) String() string {
	switch s {
	case LogRequested:
		return "requested"
	case LogReceived:
		return "received"
	case LogCreated:
		return "created"
	case LogDeleted:
		return "deleted"
	case LogFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LogPoint is one stored telemetry observation.
type LogPoint struct {
	Timestamp time.Time
	Value     float64
}
