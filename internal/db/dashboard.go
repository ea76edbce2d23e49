package db

import (
	"database/sql"
	"fmt"
	"time"

	"msitushield/internal/models"
)

// GetDashboardOverview computes the fleet-wide snapshot: every sensor with
// its derived status plus global alert counters. All reads run inside one
// transaction so the whole response reflects a single consistent view of
// the store. The per-sensor list carries no ordering guarantee.
func GetDashboardOverview(db *sql.DB) (*models.Overview, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin overview: %w", err)
	}
	defer tx.Rollback()

	openAlerts, err := latestOpenAlertTimes(tx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(`
		SELECT sensor_id, sensor_name, latitude, longitude
		FROM sensors
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	overview := &models.Overview{Sensors: []models.SensorOverview{}}
	for rows.Next() {
		var s models.SensorOverview
		if err := rows.Scan(&s.SensorID, &s.SensorName, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}

		s.Status = StatusGreen
		if t, ok := openAlerts[s.SensorID]; ok {
			s.Status = StatusRed
			s.LastAlertTime = &t
		}

		overview.Sensors = append(overview.Sensors, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = tx.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN resolved = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN resolved = 1 THEN 1 ELSE 0 END), 0)
		FROM alerts
	`).Scan(
		&overview.Statistics.TotalAlerts,
		&overview.Statistics.UnresolvedAlerts,
		&overview.Statistics.ResolvedAlerts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	overview.Statistics.TotalSensors = len(overview.Sensors)
	return overview, tx.Commit()
}

// latestOpenAlertTimes maps sensor_id to the alert_time of its most recent
// unresolved alert. Sensors without open alerts are absent from the map.
func latestOpenAlertTimes(tx *sql.Tx) (map[string]time.Time, error) {
	rows, err := tx.Query(`
		SELECT sensor_id, MAX(alert_time)
		FROM alerts
		WHERE resolved = 0
		GROUP BY sensor_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open alerts: %w", err)
	}
	defer rows.Close()

	times := make(map[string]time.Time)
	for rows.Next() {
		var sensorID, raw string
		if err := rows.Scan(&sensorID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan open alert: %w", err)
		}
		// MAX() strips the column's DATETIME affinity, so parse by hand.
		t, err := time.Parse(timeFormat, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse alert time %q: %w", raw, err)
		}
		times[sensorID] = t.UTC()
	}

	return times, rows.Err()
}
