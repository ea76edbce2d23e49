package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	AlertCreated      EventType = "alert_created"
	AlertResolved     EventType = "alert_resolved"
	SensorProvisioned EventType = "sensor_provisioned"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	Type       EventType         `json:"type"`
	Severity   Severity          `json:"severity"`
	SensorID   string            `json:"sensor_id,omitempty"`
	SensorName string            `json:"sensor_name,omitempty"`
	AlertID    int64             `json:"alert_id,omitempty"`
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
