package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"msitushield/internal/db"
	"msitushield/internal/models"
)

func setupSensorHandler(t *testing.T) *SensorHandler {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.CreateSchema(database); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return NewSensorHandler(database)
}

func TestCreateSensorEndpoint(t *testing.T) {
	h := setupSensorHandler(t)

	body := `{"sensor_id":"S1","sensor_name":"Ridge","latitude":-0.42,"longitude":36.95}`
	req := httptest.NewRequest(http.MethodPost, "/api/sensors", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateSensor(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var sensor models.Sensor
	if err := json.Unmarshal(w.Body.Bytes(), &sensor); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sensor.SensorID != "S1" || sensor.Name != "Ridge" {
		t.Errorf("sensor = %+v", sensor)
	}

	// Same sensor_id again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/sensors", strings.NewReader(body))
	w = httptest.NewRecorder()
	h.CreateSensor(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestCreateSensorValidation(t *testing.T) {
	h := setupSensorHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sensors",
		strings.NewReader(`{"sensor_id":"","sensor_name":""}`))
	w := httptest.NewRecorder()
	h.CreateSensor(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetSensorsEmptyIsArray(t *testing.T) {
	h := setupSensorHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sensors", nil)
	w := httptest.NewRecorder()
	h.GetSensors(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestGetSensorStatusEndpoint(t *testing.T) {
	h := setupSensorHandler(t)

	if _, _, err := db.IngestAlert(h.DB, models.AlertCreate{SensorID: "S1"}); err != nil {
		t.Fatalf("IngestAlert failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sensors/S1/status", nil)
	req.SetPathValue("id", "S1")
	w := httptest.NewRecorder()
	h.GetSensorStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var status models.SensorStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Status != db.StatusRed || !status.HasUnresolvedAlert {
		t.Errorf("status = %+v, want red", status)
	}

	// Unknown sensors report green rather than erroring.
	req = httptest.NewRequest(http.MethodGet, "/api/sensors/ghost/status", nil)
	req.SetPathValue("id", "ghost")
	w = httptest.NewRecorder()
	h.GetSensorStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unknown sensor status code = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Status != db.StatusGreen {
		t.Errorf("unknown sensor status = %q, want green", status.Status)
	}
}
