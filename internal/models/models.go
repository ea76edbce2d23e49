package models

import "time"

// User is a dashboard operator account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an active login session for a user.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sensor is a field device identified by an externally assigned sensor_id.
// Coordinates default to 0.0 meaning "unknown" (auto-provisioned sensors).
type Sensor struct {
	ID        int64     `json:"id"`
	SensorID  string    `json:"sensor_id"`
	Name      string    `json:"sensor_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// Alert is one reported threat event. SensorName is a snapshot taken at
// creation time and is never re-derived from the sensor record.
type Alert struct {
	ID                int64     `json:"id"`
	SensorID          string    `json:"sensor_id"`
	SensorName        string    `json:"sensor_name"`
	AlertTime         time.Time `json:"alert_time"`
	Resolved          bool      `json:"resolved"`
	ResolvedBy        int64     `json:"resolved_by,omitempty"`
	ResolvedAt        time.Time `json:"resolved_at,omitempty"`
	ThreatType        string    `json:"threat_type,omitempty"`
	ResolutionDetails string    `json:"resolution_details,omitempty"`
	AttachmentPath    string    `json:"attachment_path,omitempty"`
}

// AlertCreate is the ingest payload sent by field devices.
type AlertCreate struct {
	SensorID   string     `json:"sensor_id"`
	SensorName string     `json:"sensor_name,omitempty"`
	AlertTime  *time.Time `json:"alert_time,omitempty"`
}

// SensorCreate is the payload for explicit sensor registration.
type SensorCreate struct {
	SensorID  string  `json:"sensor_id"`
	Name      string  `json:"sensor_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SensorStatus is the derived red/green state of one sensor.
// LastAlertTime is set only when an unresolved alert exists.
type SensorStatus struct {
	SensorID           string     `json:"sensor_id"`
	Status             string     `json:"status"`
	HasUnresolvedAlert bool       `json:"has_unresolved_alert"`
	LastAlertTime      *time.Time `json:"last_alert_time,omitempty"`
}

// SensorOverview is one sensor's entry in the dashboard overview.
type SensorOverview struct {
	SensorID      string     `json:"sensor_id"`
	SensorName    string     `json:"sensor_name"`
	Latitude      float64    `json:"latitude"`
	Longitude     float64    `json:"longitude"`
	Status        string     `json:"status"`
	LastAlertTime *time.Time `json:"last_alert_time"`
}

// OverviewStats holds the fleet-wide counters.
// TotalAlerts is always UnresolvedAlerts + ResolvedAlerts.
type OverviewStats struct {
	TotalAlerts      int `json:"total_alerts"`
	UnresolvedAlerts int `json:"unresolved_alerts"`
	ResolvedAlerts   int `json:"resolved_alerts"`
	TotalSensors     int `json:"total_sensors"`
}

// Overview is the computed, non-persisted dashboard snapshot.
type Overview struct {
	Sensors    []SensorOverview `json:"sensors"`
	Statistics OverviewStats    `json:"statistics"`
}

// Config holds server configuration.
type Config struct {
	Port        string
	DBPath      string
	UploadDir   string
	FrontendURL string
	AuthEnabled bool
}
