package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"msitushield/internal/models"
)

// Sensor status values derived from open alerts.
const (
	StatusRed   = "red"
	StatusGreen = "green"
)

var (
	// ErrAlertNotFound is returned for an unknown alert id.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrAlertResolved is returned when resolving an already-resolved alert.
	ErrAlertResolved = errors.New("alert already resolved")
)

// timeFormat is how timestamps are stored; fixed width keeps
// lexicographic and chronological ordering identical.
const timeFormat = "2006-01-02 15:04:05"

// AlertFilter for querying alerts
type AlertFilter struct {
	SensorID string
	Resolved *bool
	Limit    int
}

// IngestAlert records a new alert from a field device. The sensor is
// provisioned on the fly if it has never been seen; the alert's sensor_name
// snapshot comes from the request when present, otherwise from the sensor
// record. Returns the stored alert and whether a sensor was provisioned.
//
// Every call produces exactly one new alert row. Repeated identical reports
// are intentionally not deduplicated so operators see every event.
func IngestAlert(db *sql.DB, req models.AlertCreate) (*models.Alert, bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin ingest: %w", err)
	}
	defer tx.Rollback()

	sensorName, provisioned, err := ensureSensor(tx, req.SensorID, req.SensorName)
	if err != nil {
		return nil, false, err
	}

	name := req.SensorName
	if name == "" {
		name = sensorName
	}

	alertTime := time.Now().UTC()
	if req.AlertTime != nil {
		alertTime = req.AlertTime.UTC()
	}

	result, err := tx.Exec(`
		INSERT INTO alerts (sensor_id, sensor_name, alert_time, resolved)
		VALUES (?, ?, ?, 0)
	`, req.SensorID, name, alertTime.Format(timeFormat))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read alert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit ingest: %w", err)
	}

	alert, err := GetAlertByID(db, id)
	if err != nil {
		return nil, false, err
	}
	return alert, provisioned, nil
}

// GetAlerts retrieves alerts based on filter criteria, newest first.
func GetAlerts(db *sql.DB, filter AlertFilter) ([]models.Alert, error) {
	query := alertSelect + " WHERE 1=1"
	args := []interface{}{}

	if filter.SensorID != "" {
		query += " AND sensor_id = ?"
		args = append(args, filter.SensorID)
	}

	if filter.Resolved != nil {
		if *filter.Resolved {
			query += " AND resolved = 1"
		} else {
			query += " AND resolved = 0"
		}
	}

	query += " ORDER BY alert_time DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return queryAlerts(db, query, args...)
}

// GetAlertByID retrieves a single alert. Returns ErrAlertNotFound if absent.
func GetAlertByID(db *sql.DB, id int64) (*models.Alert, error) {
	alerts, err := queryAlerts(db, alertSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, ErrAlertNotFound
	}
	return &alerts[0], nil
}

// ResolveAlert performs the one-way OPEN → RESOLVED transition. All five
// resolution fields are written by a single conditional UPDATE guarded on
// resolved = 0, so under a race exactly one caller wins; the loser matches
// zero rows and gets ErrAlertResolved. There is no reverse transition.
func ResolveAlert(db *sql.DB, id, resolvedBy int64, threatType, details, attachmentPath string) (*models.Alert, error) {
	result, err := db.Exec(`
		UPDATE alerts
		SET resolved = 1,
		    resolved_by = ?,
		    resolved_at = ?,
		    threat_type = ?,
		    resolution_details = ?,
		    attachment_path = ?
		WHERE id = ? AND resolved = 0
	`, resolvedBy, time.Now().UTC().Format(timeFormat), threatType, details, attachmentPath, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Distinguish an unknown alert from a lost resolution race.
		existing, err := GetAlertByID(db, id)
		if err != nil {
			return nil, err
		}
		if existing.Resolved {
			return nil, ErrAlertResolved
		}
		return nil, fmt.Errorf("failed to resolve alert %d", id)
	}

	return GetAlertByID(db, id)
}

// GetSensorStatus derives the red/green state of a sensor from its open
// alerts. The status is never stored; it is computed on demand.
func GetSensorStatus(db *sql.DB, sensorID string) (*models.SensorStatus, error) {
	status := &models.SensorStatus{
		SensorID: sensorID,
		Status:   StatusGreen,
	}

	var lastAlert time.Time
	err := db.QueryRow(`
		SELECT alert_time FROM alerts
		WHERE sensor_id = ? AND resolved = 0
		ORDER BY alert_time DESC
		LIMIT 1
	`, sensorID).Scan(&lastAlert)

	if err == sql.ErrNoRows {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor status: %w", err)
	}

	status.Status = StatusRed
	status.HasUnresolvedAlert = true
	status.LastAlertTime = &lastAlert
	return status, nil
}

const alertSelect = `
	SELECT id, sensor_id, sensor_name, alert_time, resolved,
	       resolved_by, resolved_at,
	       COALESCE(threat_type, ''), COALESCE(resolution_details, ''),
	       COALESCE(attachment_path, '')
	FROM alerts
`

func queryAlerts(db *sql.DB, query string, args ...interface{}) ([]models.Alert, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		var resolvedBy sql.NullInt64
		var resolvedAt sql.NullTime

		err := rows.Scan(
			&alert.ID, &alert.SensorID, &alert.SensorName,
			&alert.AlertTime, &alert.Resolved,
			&resolvedBy, &resolvedAt,
			&alert.ThreatType, &alert.ResolutionDetails, &alert.AttachmentPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if resolvedBy.Valid {
			alert.ResolvedBy = resolvedBy.Int64
		}
		if resolvedAt.Valid {
			alert.ResolvedAt = resolvedAt.Time
		}

		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
