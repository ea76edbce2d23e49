package notify

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrServiceNotFound is returned for an unknown notification service id.
var ErrServiceNotFound = errors.New("notification service not found")

// InitTables creates the notification tables.
func InitTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notification_services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		service_type TEXT NOT NULL,
		shoutrrr_url TEXT NOT NULL,
		enabled INTEGER DEFAULT 1,
		notify_on_created INTEGER DEFAULT 1,
		notify_on_resolved INTEGER DEFAULT 0,
		notify_on_provision INTEGER DEFAULT 0,
		cooldown_secs INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS notification_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		sensor_id TEXT,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		sent_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (service_id) REFERENCES notification_services(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_notif_history_service ON notification_history(service_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create notification tables: %w", err)
	}
	return nil
}

const serviceSelect = `
	SELECT id, name, service_type, shoutrrr_url, enabled,
	       notify_on_created, notify_on_resolved, notify_on_provision,
	       cooldown_secs, created_at
	FROM notification_services
`

// ListServices returns all configured notification services.
func ListServices(db *sql.DB) ([]Service, error) {
	return queryServices(db, serviceSelect+" ORDER BY id")
}

// ListEnabledServices returns services that may receive notifications.
func ListEnabledServices(db *sql.DB) ([]Service, error) {
	return queryServices(db, serviceSelect+" WHERE enabled = 1 ORDER BY id")
}

// GetService retrieves one service. Returns ErrServiceNotFound if absent.
func GetService(db *sql.DB, id int64) (*Service, error) {
	services, err := queryServices(db, serviceSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, ErrServiceNotFound
	}
	return &services[0], nil
}

// CreateService stores a new notification destination.
func CreateService(db *sql.DB, svc *Service) (*Service, error) {
	result, err := db.Exec(`
		INSERT INTO notification_services (
			name, service_type, shoutrrr_url, enabled,
			notify_on_created, notify_on_resolved, notify_on_provision,
			cooldown_secs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, svc.Name, svc.ServiceType, svc.ShoutrrrURL, svc.Enabled,
		svc.NotifyOnCreated, svc.NotifyOnResolved, svc.NotifyOnProvision,
		svc.CooldownSecs)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read service id: %w", err)
	}
	return GetService(db, id)
}

// UpdateService overwrites a service's configuration.
func UpdateService(db *sql.DB, svc *Service) error {
	result, err := db.Exec(`
		UPDATE notification_services
		SET name = ?, service_type = ?, shoutrrr_url = ?, enabled = ?,
		    notify_on_created = ?, notify_on_resolved = ?, notify_on_provision = ?,
		    cooldown_secs = ?
		WHERE id = ?
	`, svc.Name, svc.ServiceType, svc.ShoutrrrURL, svc.Enabled,
		svc.NotifyOnCreated, svc.NotifyOnResolved, svc.NotifyOnProvision,
		svc.CooldownSecs, svc.ID)
	if err != nil {
		return fmt.Errorf("failed to update notification service: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// DeleteService removes a service and its history.
func DeleteService(db *sql.DB, id int64) error {
	result, err := db.Exec("DELETE FROM notification_services WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete notification service: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// RecordNotification appends a history row and returns its id.
func RecordNotification(db *sql.DB, rec *Record) (int64, error) {
	var sentAt interface{}
	if !rec.SentAt.IsZero() {
		sentAt = rec.SentAt.UTC().Format("2006-01-02 15:04:05")
	}

	result, err := db.Exec(`
		INSERT INTO notification_history (
			service_id, event_type, sensor_id, message, status, error_message, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ServiceID, rec.EventType, rec.SensorID, rec.Message,
		rec.Status, rec.ErrorMessage, sentAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record notification: %w", err)
	}

	return result.LastInsertId()
}

// ListHistory returns recent notification attempts, newest first.
func ListHistory(db *sql.DB, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, service_id, event_type, COALESCE(sensor_id, ''),
		       message, status, COALESCE(error_message, ''), sent_at, created_at
		FROM notification_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var sentAt sql.NullTime

		err := rows.Scan(&rec.ID, &rec.ServiceID, &rec.EventType, &rec.SensorID,
			&rec.Message, &rec.Status, &rec.ErrorMessage, &sentAt, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification record: %w", err)
		}

		if sentAt.Valid {
			rec.SentAt = sentAt.Time
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func queryServices(db *sql.DB, query string, args ...interface{}) ([]Service, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var svc Service
		err := rows.Scan(&svc.ID, &svc.Name, &svc.ServiceType, &svc.ShoutrrrURL,
			&svc.Enabled, &svc.NotifyOnCreated, &svc.NotifyOnResolved,
			&svc.NotifyOnProvision, &svc.CooldownSecs, &svc.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification service: %w", err)
		}
		services = append(services, svc)
	}

	return services, rows.Err()
}
