package notify

import "time"

// Service is a configured Shoutrrr destination for alert notifications.
type Service struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	ServiceType       string    `json:"service_type"` // telegram, discord, smtp, ...
	ShoutrrrURL       string    `json:"shoutrrr_url"`
	Enabled           bool      `json:"enabled"`
	NotifyOnCreated   bool      `json:"notify_on_created"`
	NotifyOnResolved  bool      `json:"notify_on_resolved"`
	NotifyOnProvision bool      `json:"notify_on_provision"`
	CooldownSecs      int       `json:"cooldown_secs"` // min seconds between sends per sensor
	CreatedAt         time.Time `json:"created_at"`
}

// Record is one row of notification history.
type Record struct {
	ID           int64     `json:"id"`
	ServiceID    int64     `json:"service_id"`
	EventType    string    `json:"event_type"`
	SensorID     string    `json:"sensor_id,omitempty"`
	Message      string    `json:"message"`
	Status       string    `json:"status"` // sent, failed
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
