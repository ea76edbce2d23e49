package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"msitushield/internal/models"
)

// ErrSensorExists is returned when registering a sensor_id that is already taken.
var ErrSensorExists = errors.New("sensor already exists")

// CreateSensor registers a sensor explicitly. The sensor_id must be unused.
func CreateSensor(db *sql.DB, req models.SensorCreate) (*models.Sensor, error) {
	result, err := db.Exec(`
		INSERT INTO sensors (sensor_id, sensor_name, latitude, longitude)
		VALUES (?, ?, ?, ?)
	`, req.SensorID, req.Name, req.Latitude, req.Longitude)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrSensorExists
		}
		return nil, fmt.Errorf("failed to create sensor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor id: %w", err)
	}

	return getSensorByRowID(db, id)
}

// GetSensorByID retrieves a sensor by its external sensor_id.
// Returns nil when no such sensor exists.
func GetSensorByID(db *sql.DB, sensorID string) (*models.Sensor, error) {
	row := db.QueryRow(`
		SELECT id, sensor_id, sensor_name, latitude, longitude, created_at
		FROM sensors
		WHERE sensor_id = ?
	`, sensorID)
	return scanSensor(row)
}

func getSensorByRowID(db *sql.DB, id int64) (*models.Sensor, error) {
	row := db.QueryRow(`
		SELECT id, sensor_id, sensor_name, latitude, longitude, created_at
		FROM sensors
		WHERE id = ?
	`, id)
	return scanSensor(row)
}

func scanSensor(row *sql.Row) (*models.Sensor, error) {
	var s models.Sensor
	err := row.Scan(&s.ID, &s.SensorID, &s.Name, &s.Latitude, &s.Longitude, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sensor: %w", err)
	}
	return &s, nil
}

// ListSensors returns all registered sensors.
func ListSensors(db *sql.DB) ([]models.Sensor, error) {
	rows, err := db.Query(`
		SELECT id, sensor_id, sensor_name, latitude, longitude, created_at
		FROM sensors
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []models.Sensor
	for rows.Next() {
		var s models.Sensor
		if err := rows.Scan(&s.ID, &s.SensorID, &s.Name, &s.Latitude, &s.Longitude, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		sensors = append(sensors, s)
	}

	return sensors, rows.Err()
}

// ensureSensor makes sure a sensor row exists for sensorID and returns its
// current name plus whether a new row was provisioned. INSERT OR IGNORE
// guards the race where two ingestions see the same unknown sensor_id:
// exactly one insert wins the UNIQUE constraint, the other is a no-op.
func ensureSensor(tx *sql.Tx, sensorID, name string) (string, bool, error) {
	if name == "" {
		name = "Sensor " + sensorID
	}

	result, err := tx.Exec(`
		INSERT OR IGNORE INTO sensors (sensor_id, sensor_name, latitude, longitude)
		VALUES (?, ?, 0.0, 0.0)
	`, sensorID, name)
	if err != nil {
		return "", false, fmt.Errorf("failed to provision sensor %s: %w", sensorID, err)
	}

	inserted, _ := result.RowsAffected()

	var currentName string
	if err := tx.QueryRow(
		"SELECT sensor_name FROM sensors WHERE sensor_id = ?", sensorID,
	).Scan(&currentName); err != nil {
		return "", false, fmt.Errorf("failed to read sensor %s: %w", sensorID, err)
	}

	return currentName, inserted > 0, nil
}
