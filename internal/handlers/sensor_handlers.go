package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"msitushield/internal/db"
	"msitushield/internal/models"
)

// SensorHandler handles sensor registry API requests
type SensorHandler struct {
	DB *sql.DB
}

// NewSensorHandler creates a new sensor handler
func NewSensorHandler(database *sql.DB) *SensorHandler {
	return &SensorHandler{DB: database}
}

// CreateSensor handles POST /api/sensors
func (h *SensorHandler) CreateSensor(w http.ResponseWriter, r *http.Request) {
	var req models.SensorCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.SensorID = strings.TrimSpace(req.SensorID)
	req.Name = strings.TrimSpace(req.Name)
	if req.SensorID == "" || req.Name == "" {
		JSONError(w, "sensor_id and sensor_name are required", http.StatusBadRequest)
		return
	}

	sensor, err := db.CreateSensor(h.DB, req)
	if errors.Is(err, db.ErrSensorExists) {
		JSONError(w, "sensor ID already exists", http.StatusConflict)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, sensor)
}

// GetSensors handles GET /api/sensors
func (h *SensorHandler) GetSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := db.ListSensors(h.DB)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sensors == nil {
		sensors = []models.Sensor{}
	}

	JSONResponse(w, sensors)
}

// GetSensorStatus handles GET /api/sensors/{id}/status
// The status is derived from open alerts at query time, never stored.
// An unknown sensor_id reports "green": no alerts means nothing is open.
func (h *SensorHandler) GetSensorStatus(w http.ResponseWriter, r *http.Request) {
	sensorID := r.PathValue("id")
	if sensorID == "" {
		JSONError(w, "sensor id is required", http.StatusBadRequest)
		return
	}

	status, err := db.GetSensorStatus(h.DB, sensorID)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, status)
}
